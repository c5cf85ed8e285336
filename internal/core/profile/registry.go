package profile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/berfenger/ecoflow2mqtt/internal/core/domain"
)

// patternMarker binds a slave pack index in pattern entities, e.g.
// source "bms_slave_bmsSlaveStatus_{n}.soc".
const patternMarker = "{n}"

// Registry is the live catalog of entity definitions. The static part is
// immutable after Load; the only mutation is the lazy materialization of
// auto entities when their namespace is first observed in telemetry.
type Registry struct {
	device DeviceInfo

	mu        sync.RWMutex
	static    []*domain.EntityDefinition
	dynamic   []*domain.EntityDefinition
	byId      map[string]*domain.EntityDefinition
	patterns  []*patternEntity
	activated map[string]bool
}

type patternEntity struct {
	decl  *Declaration
	nsExp *regexp.Regexp
}

// Load builds a registry from a validated profile document.
func Load(doc *Document) (*Registry, error) {
	reg := &Registry{
		device:    doc.Device,
		byId:      make(map[string]*domain.EntityDefinition, len(doc.Entities)),
		activated: make(map[string]bool),
	}
	for i := range doc.Entities {
		decl := &doc.Entities[i]
		if isPattern(decl.Id) {
			exp, err := compileNamespacePattern(decl.Source)
			if err != nil {
				return nil, fmt.Errorf("entity %q: %w", decl.Id, err)
			}
			reg.patterns = append(reg.patterns, &patternEntity{decl: decl, nsExp: exp})
			continue
		}
		def, err := declToDefinition(decl, 0)
		if err != nil {
			return nil, err
		}
		reg.static = append(reg.static, def)
		reg.byId[def.Id] = def
	}
	return reg, nil
}

func (r *Registry) DeviceInfo() DeviceInfo {
	return r.device
}

// Lookup returns the definition for id if it exists and currently accepts
// reads/writes. Disabled entities and auto entities whose namespace has not
// been observed yet report ErrEntityDisabled; unknown ids (including
// never-materialized pattern ids) report ErrEntityNotFound.
func (r *Registry) Lookup(id string) (*domain.EntityDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byId[id]
	if !ok {
		return nil, fmt.Errorf("entity %q: %w", id, domain.ErrEntityNotFound)
	}
	if !r.isActiveLocked(def) {
		return nil, fmt.Errorf("entity %q: %w", id, domain.ErrEntityDisabled)
	}
	return def, nil
}

// Activated reports whether a namespace was already observed.
func (r *Registry) Activated(namespace string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activated[namespace]
}

// Activate marks a namespace as observed and returns the auto entities that
// became active because of it: static auto entities declared on that
// namespace, plus fresh definitions materialized from pattern entities whose
// namespace pattern matches. Activation is permanent: a namespace that later
// stops reporting leaves its entities active (stale, not removed). Calling
// Activate twice for the same namespace is a no-op.
func (r *Registry) Activate(namespace string) []*domain.EntityDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.activated[namespace] {
		return nil
	}
	r.activated[namespace] = true

	var woken []*domain.EntityDefinition
	for _, def := range r.static {
		if def.Enabled == domain.EnableAuto && def.Source.Namespace == namespace {
			woken = append(woken, def)
		}
	}
	for _, pat := range r.patterns {
		m := pat.nsExp.FindStringSubmatch(namespace)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		def, err := materialize(pat.decl, n)
		if err != nil {
			// declarations are validated at load; a bind failure here is a
			// profile defect and the entity is skipped, not fatal mid-run
			continue
		}
		if _, dup := r.byId[def.Id]; dup {
			continue
		}
		r.dynamic = append(r.dynamic, def)
		r.byId[def.Id] = def
		woken = append(woken, def)
	}
	return woken
}

// Active returns every entity that currently accepts reads, in profile
// order, dynamically materialized entities last in activation order.
func (r *Registry) Active() []*domain.EntityDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.EntityDefinition, 0, len(r.static)+len(r.dynamic))
	for _, def := range r.static {
		if r.isActiveLocked(def) {
			out = append(out, def)
		}
	}
	out = append(out, r.dynamic...)
	return out
}

// ActiveByNamespace returns the active entities sourced from a namespace.
func (r *Registry) ActiveByNamespace(namespace string) []*domain.EntityDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.EntityDefinition
	for _, def := range r.static {
		if def.Source.Namespace == namespace && r.isActiveLocked(def) {
			out = append(out, def)
		}
	}
	for _, def := range r.dynamic {
		if def.Source.Namespace == namespace {
			out = append(out, def)
		}
	}
	return out
}

func (r *Registry) isActiveLocked(def *domain.EntityDefinition) bool {
	switch def.Enabled {
	case domain.EnableOff:
		return false
	case domain.EnableAuto:
		return r.activated[def.Source.Namespace]
	default:
		return true
	}
}

func compileNamespacePattern(source string) (*regexp.Regexp, error) {
	path, err := domain.ParseSourcePath(source)
	if err != nil {
		return nil, err
	}
	if !isPattern(path.Namespace) {
		return nil, fmt.Errorf("source namespace %q carries no %s marker", path.Namespace, patternMarker)
	}
	quoted := regexp.QuoteMeta(path.Namespace)
	exp := strings.Replace(quoted, regexp.QuoteMeta(patternMarker), `(\d+)`, 1)
	return regexp.Compile("^" + exp + "$")
}

func materialize(decl *Declaration, n int) (*domain.EntityDefinition, error) {
	bound := *decl
	idx := strconv.Itoa(n)
	bound.Id = strings.ReplaceAll(decl.Id, patternMarker, idx)
	bound.Name = strings.ReplaceAll(decl.Name, patternMarker, idx)
	bound.Source = strings.ReplaceAll(decl.Source, patternMarker, idx)
	if decl.FieldKey != "" {
		bound.FieldKey = strings.ReplaceAll(decl.FieldKey, patternMarker, idx)
	}
	return declToDefinition(&bound, n)
}

func declToDefinition(decl *Declaration, packIndex int) (*domain.EntityDefinition, error) {
	source, err := domain.ParseSourcePath(decl.Source)
	if err != nil {
		return nil, fmt.Errorf("entity %q: %w", decl.Id, err)
	}

	def := &domain.EntityDefinition{
		Id:        decl.Id,
		Name:      decl.Name,
		Source:    source,
		FieldKey:  decl.FieldKey,
		PackIndex: packIndex,
		Display: domain.Display{
			DeviceClass:    decl.DeviceClass,
			StateClass:     decl.StateClass,
			Unit:           decl.Unit,
			Icon:           decl.Icon,
			EntityCategory: decl.Category,
			Decimals:       decl.Decimals,
		},
	}
	if def.FieldKey == "" {
		def.FieldKey = source.String()
	}

	switch decl.Enabled {
	case "disabled":
		def.Enabled = domain.EnableOff
	case "auto":
		def.Enabled = domain.EnableAuto
	default:
		def.Enabled = domain.EnableOn
	}

	switch decl.Kind {
	case "sensor":
		def.Kind = domain.KindSensor
	case "switch":
		def.Kind = domain.KindSwitch
	case "slider":
		def.Kind = domain.KindSlider
		step := 1.0
		if decl.Step != nil {
			step = *decl.Step
		}
		def.Range = &domain.NumericRange{Min: *decl.Min, Max: *decl.Max, Step: step}
	case "select":
		def.Kind = domain.KindSelect
		for _, opt := range decl.Options {
			def.Options = append(def.Options, domain.SelectOption{Label: opt.Label, Code: opt.Value})
		}
	}

	if decl.Command != nil {
		params := make(map[string]any, len(decl.Command.Params))
		for k, v := range decl.Command.Params {
			params[k] = v
		}
		def.Command = &domain.CommandTemplate{
			ModuleType:  decl.Command.ModuleType,
			OperateType: decl.Command.OperateType,
			ModuleSn:    decl.Command.ModuleSn,
			Params:      params,
		}
	}
	return def, nil
}
