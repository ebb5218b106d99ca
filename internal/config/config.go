package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/compass_nav/internal/gps"
	"github.com/relabs-tech/compass_nav/internal/guidance"
	"github.com/relabs-tech/compass_nav/internal/heading"
	"github.com/relabs-tech/compass_nav/internal/nav"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker              string
	MQTTClientIDGPS         string
	MQTTClientIDOrientation string
	MQTTClientIDNavigator   string
	MQTTClientIDConsole     string

	// Topics
	TopicGPS            string
	TopicGPSStatus      string
	TopicOrientation    string
	TopicScreenRotation string
	TopicManualHeading  string
	TopicGeocodeRequest string
	TopicTarget         string
	TopicGuidance       string

	// GPS
	GPSSerialPort string
	GPSBaudRate   int
	GPSFixTimeout int // seconds without a valid fix before reporting a timeout

	// Orientation
	OrientationSampleInterval int // milliseconds, mock producer only

	// Heading fusion and guidance
	SensorSmoothing   float64
	GPSSmoothing      float64
	MinCourseSpeedMPS float64
	MinDisplacementM  float64
	DeadBandDeg       float64

	// Web Server
	WebServerPort int

	// Logging: debug, info, warn, error
	LogLevel string
}

// Package-level singleton: InitGlobal sets it once, Get reads it.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a configuration with every tunable at its stock value.
// Load starts from it, so a config file only lists what it changes.
func Default() *Config {
	return &Config{
		MQTTBroker:              "tcp://localhost:1883",
		MQTTClientIDGPS:         "compass-gps-producer",
		MQTTClientIDOrientation: "compass-orientation-producer",
		MQTTClientIDNavigator:   "compass-navigator",
		MQTTClientIDConsole:     "compass-console",

		TopicGPS:            "compass/gps",
		TopicGPSStatus:      "compass/status",
		TopicOrientation:    "compass/orientation",
		TopicScreenRotation: "compass/screen_rotation",
		TopicManualHeading:  "compass/manual_heading",
		TopicGeocodeRequest: "compass/geocode/request",
		TopicTarget:         "compass/target",
		TopicGuidance:       "compass/guidance",

		GPSSerialPort: "/dev/serial0",
		GPSBaudRate:   9600,
		GPSFixTimeout: 15,

		OrientationSampleInterval: 100,

		SensorSmoothing:   heading.DefaultSensorSmoothing,
		GPSSmoothing:      heading.DefaultGPSSmoothing,
		MinCourseSpeedMPS: gps.DefaultMinCourseSpeedMPS,
		MinDisplacementM:  gps.DefaultMinDisplacementM,
		DeadBandDeg:       guidance.DefaultDeadBandDeg,

		WebServerPort: 8080,
		LogLevel:      "info",
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_ORIENTATION":
		c.MQTTClientIDOrientation = value
	case "MQTT_CLIENT_ID_NAVIGATOR":
		c.MQTTClientIDNavigator = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_GPS":
		c.TopicGPS = value
	case "TOPIC_GPS_STATUS":
		c.TopicGPSStatus = value
	case "TOPIC_ORIENTATION":
		c.TopicOrientation = value
	case "TOPIC_SCREEN_ROTATION":
		c.TopicScreenRotation = value
	case "TOPIC_MANUAL_HEADING":
		c.TopicManualHeading = value
	case "TOPIC_GEOCODE_REQUEST":
		c.TopicGeocodeRequest = value
	case "TOPIC_TARGET":
		c.TopicTarget = value
	case "TOPIC_GUIDANCE":
		c.TopicGuidance = value

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		c.GPSBaudRate, err = parsePositiveInt(key, value)
	case "GPS_FIX_TIMEOUT":
		c.GPSFixTimeout, err = parsePositiveInt(key, value)

	// Orientation
	case "ORIENTATION_SAMPLE_INTERVAL":
		c.OrientationSampleInterval, err = parsePositiveInt(key, value)

	// Heading fusion: smoothing factors must be in (0, 1]
	case "SENSOR_SMOOTHING":
		c.SensorSmoothing, err = parseFactor(key, value)
	case "GPS_SMOOTHING":
		c.GPSSmoothing, err = parseFactor(key, value)
	case "MIN_COURSE_SPEED_MPS":
		c.MinCourseSpeedMPS, err = parseNonNegative(key, value)
	case "MIN_DISPLACEMENT_M":
		c.MinDisplacementM, err = parseNonNegative(key, value)
	case "DEAD_BAND_DEG":
		c.DeadBandDeg, err = parseNonNegative(key, value)
		if err == nil && c.DeadBandDeg >= 180 {
			err = fmt.Errorf("DEAD_BAND_DEG must be below 180, got %v", c.DeadBandDeg)
		}

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parsePositiveInt(key, value)
		if err == nil && c.WebServerPort > 65535 {
			err = fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
		}

	// Logging
	case "LOG_LEVEL":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(value)
		default:
			return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", value)
		}

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

func parsePositiveInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, v)
	}
	return v, nil
}

func parseNonNegative(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if !(v >= 0) || v > 1e6 {
		return 0, fmt.Errorf("%s must be a non-negative number, got %q", key, value)
	}
	return v, nil
}

func parseFactor(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if !(v > 0 && v <= 1) {
		return 0, fmt.Errorf("%s must be in (0, 1], got %v", key, v)
	}
	return v, nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicGPS == "" || c.TopicOrientation == "" || c.TopicGuidance == "" {
		return fmt.Errorf("TOPIC_GPS, TOPIC_ORIENTATION and TOPIC_GUIDANCE are required")
	}
	if c.GPSSerialPort == "" {
		return fmt.Errorf("GPS_SERIAL_PORT is required")
	}
	return nil
}

// NavOptions returns the navigator tunables from this configuration.
func (c *Config) NavOptions() nav.Options {
	return nav.Options{
		Heading: heading.Options{
			SensorSmoothing: c.SensorSmoothing,
			GPSSmoothing:    c.GPSSmoothing,
		},
		Tracker: gps.TrackerOptions{
			MinCourseSpeedMPS: c.MinCourseSpeedMPS,
			MinDisplacementM:  c.MinDisplacementM,
		},
		DeadBandDeg: c.DeadBandDeg,
	}
}

// FixTimeout returns GPS_FIX_TIMEOUT as a duration.
func (c *Config) FixTimeout() time.Duration {
	return time.Duration(c.GPSFixTimeout) * time.Second
}

// WebAddr returns the listen address of the web server.
func (c *Config) WebAddr() string {
	return fmt.Sprintf(":%d", c.WebServerPort)
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads anything; later calls are no-ops.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
