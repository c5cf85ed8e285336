package command

import (
	"testing"

	"github.com/berfenger/ecoflow2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSubstitutesPlaceholder(t *testing.T) {
	def := sliderDef()

	accepted, err := Validate(def, 800)
	require.NoError(t, err)
	cmd, err := Build(def, accepted, "R331ZEB4ZEAL0528")
	require.NoError(t, err)

	assert.Equal(t, 3, cmd.ModuleType)
	assert.Equal(t, "acChgCfg", cmd.OperateType)
	// template moduleSn wins over the fallback serial
	assert.Equal(t, "MOCK", cmd.ModuleSn)
	assert.Equal(t, map[string]any{
		"slowChgWatts": int64(800),
		"fastChgWatts": int64(255),
		"chgPauseFlag": int64(0),
	}, cmd.Params)
}

func TestBuildFallsBackToSerialNumber(t *testing.T) {
	def := switchDef()

	cmd, err := Build(def, 1, "R331ZEB4ZEAL0528")
	require.NoError(t, err)
	assert.Equal(t, "R331ZEB4ZEAL0528", cmd.ModuleSn)
}

func TestBuildBindsEveryPlaceholder(t *testing.T) {
	def := &domain.EntityDefinition{
		Id:   "usb_enabled",
		Kind: domain.KindSwitch,
		Command: &domain.CommandTemplate{
			ModuleType:  1,
			OperateType: "dcOutCfg",
			Params: map[string]any{
				"enabled":    domain.Placeholder,
				"dcOutState": domain.Placeholder,
			},
		},
	}

	cmd, err := Build(def, 0, "SN")
	require.NoError(t, err)
	assert.Equal(t, 0, cmd.Params["enabled"])
	assert.Equal(t, 0, cmd.Params["dcOutState"])
}

func TestBuildLeavesTemplateUntouched(t *testing.T) {
	def := sliderDef()

	_, err := Build(def, int64(1200), "SN")
	require.NoError(t, err)

	// the template is shared state; substitution must happen on a copy
	assert.Equal(t, domain.Placeholder, def.Command.Params["slowChgWatts"])
	assert.Equal(t, 1, def.Command.PlaceholderCount())
}

func TestBuildWithoutTemplate(t *testing.T) {
	def := &domain.EntityDefinition{Id: "battery_level", Kind: domain.KindSensor}

	_, err := Build(def, 1, "SN")
	assert.Error(t, err)
}
