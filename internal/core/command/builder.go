package command

import (
	"fmt"

	"github.com/berfenger/ecoflow2mqtt/internal/core/domain"
)

// Build substitutes the accepted value into the entity's command template.
// Every placeholder param receives the same value; literal params are
// copied untouched. The template's own moduleSn wins over the fallback
// serial number, which is only used when the template leaves it empty.
func Build(def *domain.EntityDefinition, accepted any, fallbackSn string) (domain.OutgoingCommand, error) {
	tpl := def.Command
	if tpl == nil {
		return domain.OutgoingCommand{}, fmt.Errorf("entity %q has no command template", def.Id)
	}

	params := make(map[string]any, len(tpl.Params))
	substituted := 0
	for k, v := range tpl.Params {
		if s, ok := v.(string); ok && s == domain.Placeholder {
			params[k] = accepted
			substituted++
			continue
		}
		params[k] = v
	}
	if substituted == 0 {
		return domain.OutgoingCommand{}, fmt.Errorf("entity %q: command template declares no %q placeholder", def.Id, domain.Placeholder)
	}

	sn := tpl.ModuleSn
	if sn == "" {
		sn = fallbackSn
	}
	return domain.OutgoingCommand{
		ModuleType:  tpl.ModuleType,
		OperateType: tpl.OperateType,
		ModuleSn:    sn,
		Params:      params,
	}, nil
}
