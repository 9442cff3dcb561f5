package config

import (
	"log/slog"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_ENV", "LOG_LEVEL", "HTTP_ADDR", "TIMEZONE",
		"DB_DRIVER", "DB_DSN", "SQLITE_PATH", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME",
		"SENSOR_DRIVER", "SENSOR_DHT_PIN", "SENSOR_BME280_ADDR", "SAMPLE_INTERVAL", "SENSOR_MAX_CONSECUTIVE_FAILURES",
		"FAN_DRIVER", "FAN_GPIO_PIN", "FAN_TEMP_ON_C", "FAN_TEMP_OFF_C", "FAN_CHECK_INTERVAL",
		"RETENTION_MONTHS", "RETENTION_SWEEP_AT", "SMOOTHING_WINDOW",
		"WEATHER_STATION_ID", "WEATHER_WARNING_AREA", "WEATHER_CACHE_TTL", "WEATHER_FETCH_TIMEOUT", "WEATHER_BASE_URL",
		"MQTT_BROKER", "MQTT_PORT", "MQTT_CLIENT_ID", "MQTT_BASE_TOPIC",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}

	if got.AppEnv != "dev" {
		t.Errorf("AppEnv = %q, want %q", got.AppEnv, "dev")
	}
	if got.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", got.LogLevel, slog.LevelInfo)
	}
	if got.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", got.HTTPAddr, ":8080")
	}
	if got.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q, want %q", got.Timezone, "Europe/Berlin")
	}
	if got.Location == nil {
		t.Fatalf("Location = nil, want resolved zone")
	}
	if got.DBDriver != "sqlite3" {
		t.Errorf("DBDriver = %q, want %q", got.DBDriver, "sqlite3")
	}
	if got.SQLitePath != "data/hausserver.db" {
		t.Errorf("SQLitePath = %q, want %q", got.SQLitePath, "data/hausserver.db")
	}
	if got.SensorDriver != "sim" {
		t.Errorf("SensorDriver = %q, want %q", got.SensorDriver, "sim")
	}
	if got.SensorDHTPin != "GPIO23" {
		t.Errorf("SensorDHTPin = %q, want %q", got.SensorDHTPin, "GPIO23")
	}
	if got.SensorBME280Addr != 0x76 {
		t.Errorf("SensorBME280Addr = %#x, want %#x", got.SensorBME280Addr, 0x76)
	}
	if got.SampleInterval != 15*time.Minute {
		t.Errorf("SampleInterval = %v, want %v", got.SampleInterval, 15*time.Minute)
	}
	if got.SensorMaxConsecFailures != 4 {
		t.Errorf("SensorMaxConsecFailures = %d, want 4", got.SensorMaxConsecFailures)
	}
	if got.FanTempOnC != 28 || got.FanTempOffC != 24 {
		t.Errorf("fan thresholds = on %v / off %v, want 28 / 24", got.FanTempOnC, got.FanTempOffC)
	}
	if got.FanCheckInterval != time.Minute {
		t.Errorf("FanCheckInterval = %v, want %v", got.FanCheckInterval, time.Minute)
	}
	if got.RetentionMonths != 6 {
		t.Errorf("RetentionMonths = %d, want 6", got.RetentionMonths)
	}
	if got.RetentionSweepAt != "03:30" {
		t.Errorf("RetentionSweepAt = %q, want %q", got.RetentionSweepAt, "03:30")
	}
	if got.SmoothingWindow != 4 {
		t.Errorf("SmoothingWindow = %d, want 4", got.SmoothingWindow)
	}
	if got.WeatherStationID != "10433" {
		t.Errorf("WeatherStationID = %q, want %q", got.WeatherStationID, "10433")
	}
	if got.WeatherCacheTTL != 15*time.Minute {
		t.Errorf("WeatherCacheTTL = %v, want %v", got.WeatherCacheTTL, 15*time.Minute)
	}
	if got.WeatherFetchTimeout != 20*time.Second {
		t.Errorf("WeatherFetchTimeout = %v, want %v", got.WeatherFetchTimeout, 20*time.Second)
	}
	if got.WeatherBaseURL != "https://opendata.dwd.de" {
		t.Errorf("WeatherBaseURL = %q, want %q", got.WeatherBaseURL, "https://opendata.dwd.de")
	}
	if got.MQTTBroker != "" {
		t.Errorf("MQTTBroker = %q, want empty (disabled)", got.MQTTBroker)
	}
	if got.MQTTPort != 1883 {
		t.Errorf("MQTTPort = %d, want 1883", got.MQTTPort)
	}
	if got.MQTTBaseTopic != "hausserver" {
		t.Errorf("MQTTBaseTopic = %q, want %q", got.MQTTBaseTopic, "hausserver")
	}
}

func TestLoadFromEnv_SensorDriver(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "default when empty", in: "", want: "sim"},
		{name: "dht22", in: "dht22", want: "dht22"},
		{name: "bme280 with whitespace", in: "  bme280  ", want: "bme280"},
		{name: "unknown driver", in: "dht11", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("SENSOR_DRIVER", tt.in)

			got, err := LoadFromEnv()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("LoadFromEnv() error = nil, want non-nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFromEnv() error = %v, want nil", err)
			}
			if got.SensorDriver != tt.want {
				t.Errorf("SensorDriver = %q, want %q", got.SensorDriver, tt.want)
			}
		})
	}
}

func TestLoadFromEnv_FanThresholds(t *testing.T) {
	t.Run("off must be below on", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FAN_TEMP_ON_C", "24")
		t.Setenv("FAN_TEMP_OFF_C", "28")

		_, err := LoadFromEnv()
		if err == nil {
			t.Fatalf("LoadFromEnv() error = nil, want non-nil")
		}
	})

	t.Run("equal thresholds rejected", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FAN_TEMP_ON_C", "26")
		t.Setenv("FAN_TEMP_OFF_C", "26")

		_, err := LoadFromEnv()
		if err == nil {
			t.Fatalf("LoadFromEnv() error = nil, want non-nil")
		}
	})

	t.Run("custom valid pair propagates", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FAN_TEMP_ON_C", "30.5")
		t.Setenv("FAN_TEMP_OFF_C", "27.5")

		got, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv() error = %v, want nil", err)
		}
		if got.FanTempOnC != 30.5 {
			t.Errorf("FanTempOnC = %v, want 30.5", got.FanTempOnC)
		}
		if got.FanTempOffC != 27.5 {
			t.Errorf("FanTempOffC = %v, want 27.5", got.FanTempOffC)
		}
	})
}

func TestLoadFromEnv_Timezone(t *testing.T) {
	t.Run("valid zone resolves", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TIMEZONE", "UTC")

		got, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv() error = %v, want nil", err)
		}
		if got.Location != time.UTC {
			t.Errorf("Location = %v, want UTC", got.Location)
		}
	})

	t.Run("invalid zone rejected", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TIMEZONE", "Mars/Olympus_Mons")

		_, err := LoadFromEnv()
		if err == nil {
			t.Fatalf("LoadFromEnv() error = nil, want non-nil")
		}
	})
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "sample interval not a duration", key: "SAMPLE_INTERVAL", value: "soon"},
		{name: "sample interval negative", key: "SAMPLE_INTERVAL", value: "-5m"},
		{name: "failure ceiling zero", key: "SENSOR_MAX_CONSECUTIVE_FAILURES", value: "0"},
		{name: "retention months zero", key: "RETENTION_MONTHS", value: "0"},
		{name: "sweep time garbage", key: "RETENTION_SWEEP_AT", value: "quarter past three"},
		{name: "smoothing window zero", key: "SMOOTHING_WINDOW", value: "0"},
		{name: "cache ttl zero", key: "WEATHER_CACHE_TTL", value: "0s"},
		{name: "fetch timeout zero", key: "WEATHER_FETCH_TIMEOUT", value: "0s"},
		{name: "bme280 addr not a number", key: "SENSOR_BME280_ADDR", value: "left"},
		{name: "mqtt port not a number", key: "MQTT_PORT", value: "default"},
		{name: "fan driver unknown", key: "FAN_DRIVER", value: "relay9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadFromEnv()
			if err == nil {
				t.Fatalf("LoadFromEnv() error = nil, want non-nil")
			}
		})
	}
}

func TestLoadFromEnv_BME280AddrHex(t *testing.T) {
	clearEnv(t)
	t.Setenv("SENSOR_BME280_ADDR", "0x77")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}
	if got.SensorBME280Addr != 0x77 {
		t.Errorf("SensorBME280Addr = %#x, want 0x77", got.SensorBME280Addr)
	}
}

func TestLoadFromEnv_BaseTopicTrimsSlashes(t *testing.T) {
	clearEnv(t)
	t.Setenv("MQTT_BASE_TOPIC", "/haus/attic/")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}
	if got.MQTTBaseTopic != "haus/attic" {
		t.Errorf("MQTTBaseTopic = %q, want %q", got.MQTTBaseTopic, "haus/attic")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    slog.Level
		wantErr bool
	}{
		{name: "debug", in: "debug", want: slog.LevelDebug},
		{name: "warning alias", in: "warning", want: slog.LevelWarn},
		{name: "case insensitive", in: "ErRoR", want: slog.LevelError},
		{name: "trims whitespace", in: "  info \n", want: slog.LevelInfo},
		{name: "garbage", in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseLogLevel(%q) error = nil, want non-nil", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseLogLevel(%q) error = %v, want nil", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
