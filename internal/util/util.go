package util

import (
	"github.com/berfenger/ecoflow2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "ecoflow",
		},
		Device: config.DeviceConfig{
			SerialNumber:         "R331ZEB4ZEAL0528",
			StatusIntervalMillis: 30000,
		},
		Port: 8080,
	}
}
