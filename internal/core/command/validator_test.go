package command

import (
	"testing"

	"github.com/berfenger/ecoflow2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sliderDef() *domain.EntityDefinition {
	return &domain.EntityDefinition{
		Id:       "ac_charging_power",
		Kind:     domain.KindSlider,
		FieldKey: "inv.slowChgWatts",
		Range:    &domain.NumericRange{Min: 200, Max: 2400, Step: 100},
		Command: &domain.CommandTemplate{
			ModuleType:  3,
			OperateType: "acChgCfg",
			ModuleSn:    "MOCK",
			Params: map[string]any{
				"slowChgWatts": domain.Placeholder,
				"fastChgWatts": int64(255),
				"chgPauseFlag": int64(0),
			},
		},
	}
}

func switchDef() *domain.EntityDefinition {
	return &domain.EntityDefinition{
		Id:       "ac_enabled",
		Kind:     domain.KindSwitch,
		FieldKey: "inv.cfgAcEnabled",
		Command: &domain.CommandTemplate{
			ModuleType:  3,
			OperateType: "acOutCfg",
			Params:      map[string]any{"enabled": domain.Placeholder},
		},
	}
}

func selectDef() *domain.EntityDefinition {
	return &domain.EntityDefinition{
		Id:       "screen_timeout",
		Kind:     domain.KindSelect,
		FieldKey: "pd.lcdOffSec",
		Options: []domain.SelectOption{
			{Label: "Never", Code: 0},
			{Label: "30 sec", Code: 30},
			{Label: "1 min", Code: 60},
		},
		Command: &domain.CommandTemplate{
			ModuleType:  1,
			OperateType: "lcdCfg",
			Params:      map[string]any{"delayOff": domain.Placeholder},
		},
	}
}

func TestValidateSliderAcceptsInRangeValues(t *testing.T) {
	def := sliderDef()

	v, err := Validate(def, 800)
	require.NoError(t, err)
	assert.Equal(t, int64(800), v)

	// inclusive bounds
	v, err = Validate(def, 200.0)
	require.NoError(t, err)
	assert.Equal(t, int64(200), v)
	v, err = Validate(def, "2400")
	require.NoError(t, err)
	assert.Equal(t, int64(2400), v)
}

func TestValidateSliderRejectsOutOfRange(t *testing.T) {
	def := sliderDef()

	for _, raw := range []any{199, 2401, -1, "5000"} {
		_, err := Validate(def, raw)
		require.Error(t, err)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "ac_charging_power", verr.EntityId)
		assert.Contains(t, verr.Constraint, "[200,2400]")
	}
}

func TestValidateSliderRejectsNonNumeric(t *testing.T) {
	_, err := Validate(sliderDef(), "lots")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestValidateSwitchSpellings(t *testing.T) {
	def := switchDef()

	for _, raw := range []any{true, "on", "ON", "true", "1", 1} {
		v, err := Validate(def, raw)
		require.NoError(t, err, "raw %v", raw)
		assert.Equal(t, 1, v, "raw %v", raw)
	}
	for _, raw := range []any{false, "off", "false", "0", 0} {
		v, err := Validate(def, raw)
		require.NoError(t, err, "raw %v", raw)
		assert.Equal(t, 0, v, "raw %v", raw)
	}
}

func TestValidateSwitchRejectsJunk(t *testing.T) {
	for _, raw := range []any{"maybe", 2, 3.5, nil} {
		_, err := Validate(switchDef(), raw)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr, "raw %v", raw)
		assert.Contains(t, verr.Constraint, "boolean")
	}
}

func TestValidateSelectByLabelAndCode(t *testing.T) {
	def := selectDef()

	v, err := Validate(def, "30 sec")
	require.NoError(t, err)
	assert.Equal(t, int64(30), v)

	v, err = Validate(def, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(60), v)
}

func TestValidateSelectRejectsUnknownOption(t *testing.T) {
	def := selectDef()

	for _, raw := range []any{"2 min", 45, 30.5} {
		_, err := Validate(def, raw)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr, "raw %v", raw)
		assert.Contains(t, verr.Constraint, "Never")
	}
}

func TestValidateRejectsSensorWrites(t *testing.T) {
	def := &domain.EntityDefinition{Id: "battery_level", Kind: domain.KindSensor}

	_, err := Validate(def, 50)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Constraint, "writable")
}
