package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// Timezone is the IANA zone all day boundaries, stored wall times and the
	// retention sweep are computed in. Location is the resolved zone.
	Timezone string
	Location *time.Location

	DBDriver          string
	DBDSN             string
	SQLitePath        string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	SensorDriver            string
	SensorDHTPin            string
	SensorBME280Addr        uint16
	SampleInterval          time.Duration
	SensorMaxConsecFailures int

	FanDriver        string
	FanGPIOPin       string
	FanTempOnC       float64
	FanTempOffC      float64
	FanCheckInterval time.Duration

	RetentionMonths  int
	RetentionSweepAt string
	SmoothingWindow  int

	WeatherStationID    string
	WeatherWarningArea  string
	WeatherCacheTTL     time.Duration
	WeatherFetchTimeout time.Duration
	WeatherBaseURL      string

	// MQTTBroker empty disables publishing entirely.
	MQTTBroker    string
	MQTTPort      int
	MQTTClientID  string
	MQTTBaseTopic string
}

func LoadFromEnv() (Config, error) {
	// Best effort: a missing .env is normal everywhere except a dev checkout.
	_ = godotenv.Load()

	appEnv := envString("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envString("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	httpAddr := envString("HTTP_ADDR", ":8080")

	timezone := envString("TIMEZONE", "Europe/Berlin")
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", timezone, err)
	}

	dbDriver := envString("DB_DRIVER", "sqlite3")
	dbDSN := strings.TrimSpace(os.Getenv("DB_DSN"))
	sqlitePath := envString("SQLITE_PATH", "data/hausserver.db")

	dbMaxOpenConns, err := envInt("DB_MAX_OPEN_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	dbMaxIdleConns, err := envInt("DB_MAX_IDLE_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	dbConnMaxLifetime, err := envDuration("DB_CONN_MAX_LIFETIME", 0)
	if err != nil {
		return Config{}, err
	}

	sensorDriver := envString("SENSOR_DRIVER", "sim")
	switch sensorDriver {
	case "sim", "dht22", "bme280":
	default:
		return Config{}, fmt.Errorf("invalid SENSOR_DRIVER %q (allowed: sim, dht22, bme280)", sensorDriver)
	}

	sensorDHTPin := envString("SENSOR_DHT_PIN", "GPIO23")

	bme280AddrStr := envString("SENSOR_BME280_ADDR", "0x76")
	bme280Addr, err := strconv.ParseUint(bme280AddrStr, 0, 16)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SENSOR_BME280_ADDR %q: %w", bme280AddrStr, err)
	}

	sampleInterval, err := envDuration("SAMPLE_INTERVAL", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	if sampleInterval <= 0 {
		return Config{}, fmt.Errorf("SAMPLE_INTERVAL must be positive, got %v", sampleInterval)
	}

	maxConsecFailures, err := envInt("SENSOR_MAX_CONSECUTIVE_FAILURES", 4)
	if err != nil {
		return Config{}, err
	}
	if maxConsecFailures < 1 {
		return Config{}, fmt.Errorf("SENSOR_MAX_CONSECUTIVE_FAILURES must be at least 1, got %d", maxConsecFailures)
	}

	fanDriver := envString("FAN_DRIVER", "sim")
	switch fanDriver {
	case "sim", "gpio":
	default:
		return Config{}, fmt.Errorf("invalid FAN_DRIVER %q (allowed: sim, gpio)", fanDriver)
	}

	fanGPIOPin := envString("FAN_GPIO_PIN", "GPIO4")

	fanTempOnC, err := envFloat("FAN_TEMP_ON_C", 28)
	if err != nil {
		return Config{}, err
	}
	fanTempOffC, err := envFloat("FAN_TEMP_OFF_C", 24)
	if err != nil {
		return Config{}, err
	}
	if fanTempOffC >= fanTempOnC {
		return Config{}, fmt.Errorf("FAN_TEMP_OFF_C (%v) must be below FAN_TEMP_ON_C (%v)", fanTempOffC, fanTempOnC)
	}

	fanCheckInterval, err := envDuration("FAN_CHECK_INTERVAL", time.Minute)
	if err != nil {
		return Config{}, err
	}
	if fanCheckInterval <= 0 {
		return Config{}, fmt.Errorf("FAN_CHECK_INTERVAL must be positive, got %v", fanCheckInterval)
	}

	retentionMonths, err := envInt("RETENTION_MONTHS", 6)
	if err != nil {
		return Config{}, err
	}
	if retentionMonths < 1 {
		return Config{}, fmt.Errorf("RETENTION_MONTHS must be at least 1, got %d", retentionMonths)
	}

	retentionSweepAt := envString("RETENTION_SWEEP_AT", "03:30")
	if _, err := time.Parse("15:04", retentionSweepAt); err != nil {
		return Config{}, fmt.Errorf("invalid RETENTION_SWEEP_AT %q (want HH:MM): %w", retentionSweepAt, err)
	}

	smoothingWindow, err := envInt("SMOOTHING_WINDOW", 4)
	if err != nil {
		return Config{}, err
	}
	if smoothingWindow < 1 {
		return Config{}, fmt.Errorf("SMOOTHING_WINDOW must be at least 1, got %d", smoothingWindow)
	}

	weatherStationID := envString("WEATHER_STATION_ID", "10433")
	weatherWarningArea := envString("WEATHER_WARNING_AREA", "Rheinstetten")

	weatherCacheTTL, err := envDuration("WEATHER_CACHE_TTL", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	if weatherCacheTTL <= 0 {
		return Config{}, fmt.Errorf("WEATHER_CACHE_TTL must be positive, got %v", weatherCacheTTL)
	}

	weatherFetchTimeout, err := envDuration("WEATHER_FETCH_TIMEOUT", 20*time.Second)
	if err != nil {
		return Config{}, err
	}
	if weatherFetchTimeout <= 0 {
		return Config{}, fmt.Errorf("WEATHER_FETCH_TIMEOUT must be positive, got %v", weatherFetchTimeout)
	}

	weatherBaseURL := strings.TrimRight(envString("WEATHER_BASE_URL", "https://opendata.dwd.de"), "/")

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))

	mqttPort, err := envInt("MQTT_PORT", 1883)
	if err != nil {
		return Config{}, err
	}

	mqttClientID := envString("MQTT_CLIENT_ID", "hausserver")
	mqttBaseTopic := strings.Trim(envString("MQTT_BASE_TOPIC", "hausserver"), "/")

	return Config{
		AppEnv:                  appEnv,
		LogLevel:                level,
		HTTPAddr:                httpAddr,
		Timezone:                timezone,
		Location:                location,
		DBDriver:                dbDriver,
		DBDSN:                   dbDSN,
		SQLitePath:              sqlitePath,
		DBMaxOpenConns:          dbMaxOpenConns,
		DBMaxIdleConns:          dbMaxIdleConns,
		DBConnMaxLifetime:       dbConnMaxLifetime,
		SensorDriver:            sensorDriver,
		SensorDHTPin:            sensorDHTPin,
		SensorBME280Addr:        uint16(bme280Addr),
		SampleInterval:          sampleInterval,
		SensorMaxConsecFailures: maxConsecFailures,
		FanDriver:               fanDriver,
		FanGPIOPin:              fanGPIOPin,
		FanTempOnC:              fanTempOnC,
		FanTempOffC:             fanTempOffC,
		FanCheckInterval:        fanCheckInterval,
		RetentionMonths:         retentionMonths,
		RetentionSweepAt:        retentionSweepAt,
		SmoothingWindow:         smoothingWindow,
		WeatherStationID:        weatherStationID,
		WeatherWarningArea:      weatherWarningArea,
		WeatherCacheTTL:         weatherCacheTTL,
		WeatherFetchTimeout:     weatherFetchTimeout,
		WeatherBaseURL:          weatherBaseURL,
		MQTTBroker:              mqttBroker,
		MQTTPort:                mqttPort,
		MQTTClientID:            mqttClientID,
		MQTTBaseTopic:           mqttBaseTopic,
	}, nil
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
