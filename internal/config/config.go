package config

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel zapcore.Level
	MQTT     MQTTConfig   `mapstructure:"mqtt"`
	Device   DeviceConfig `mapstructure:"device"`

	Port    uint `mapstructure:"port"`
	HttpLog bool `mapstructure:"http_log"`
}

type DeviceConfig struct {
	// SerialNumber is the fallback moduleSn for command templates that do
	// not pin their own.
	SerialNumber string `mapstructure:"serial_number"`
	// ProfileFile overrides the built-in DELTA 2 profile.
	ProfileFile          string `mapstructure:"profile_file"`
	StatusIntervalMillis uint32 `mapstructure:"status_interval_millis"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
