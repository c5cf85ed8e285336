package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwitchCommandParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/switch/ac_enabled/command"
	r := switchCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(matches[0][1], "ac_enabled", "entity extract")
}

func TestSwitchCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/switch/ac_enabled/state"
	r := switchCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 0, "no matches")
}

func TestInputNumberCommandParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/number/max_charge_level/set"
	r := inputNumberCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(matches[0][1], "max_charge_level", "number_id extract")
}

func TestInputNumberCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/switch/max_charge_level/command"
	r := inputNumberCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 0, "no matches")
}

func TestSelectCommandParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/select/screen_timeout/set"
	r := selectCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(matches[0][1], "screen_timeout", "select_id extract")
}

func TestTelemetryTopicParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/device/telemetry/bms_slave_bmsSlaveStatus_2"
	r := telemetryExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(matches[0][1], "bms_slave_bmsSlaveStatus_2", "namespace extract")
}

func TestTelemetryTopicParseFail(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/device/command"
	r := telemetryExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 0, "no matches")
}
