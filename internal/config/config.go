// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/compass/internal/hmc5883l"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDCompass string
	MQTTClientIDGPS     string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	MQTTClientIDDisplay string

	// Topics
	TopicHeading string
	TopicMag     string
	TopicGPS     string

	// HMC5883L hardware
	HMCI2CBus         string
	HMCI2CAddr        uint16
	HMCGain           hmc5883l.Gain
	HMCAvgSamples     int
	HMCODRHz          float64
	HMCSampleInterval int // milliseconds

	// Heading correction
	DeclinationDeg     float64
	DeclinationFromGPS bool

	// Calibration
	CalibrationSamples int
	CalibrationDelayMS int
	CalibrationFile    string

	// GPS
	GPSSerialPort string
	GPSBaudRate   int

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds
}

// Package-level singleton; InitGlobal sets it once, Get reads it.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns a Config with every optional value filled in.
func Defaults() *Config {
	return &Config{
		MQTTClientIDCompass:   "compass-producer",
		MQTTClientIDGPS:       "compass-gps-producer",
		MQTTClientIDConsole:   "compass-console",
		MQTTClientIDWeb:       "compass-web",
		MQTTClientIDDisplay:   "compass-display",
		TopicHeading:          "compass/heading",
		TopicMag:              "compass/mag",
		TopicGPS:              "compass/gps",
		HMCI2CBus:             "1",
		HMCI2CAddr:            hmc5883l.DefaultAddr,
		HMCGain:               hmc5883l.DefaultOpts.Gain,
		HMCAvgSamples:         hmc5883l.DefaultOpts.Averaging,
		HMCODRHz:              hmc5883l.DefaultOpts.ODRHz,
		HMCSampleInterval:     100,
		CalibrationSamples:    500,
		CalibrationDelayMS:    10,
		CalibrationFile:       "compass_calibration.yaml",
		GPSSerialPort:         "/dev/serial0",
		GPSBaudRate:           9600,
		WebServerPort:         8080,
		DisplayI2CAddr:        0x3C,
		DisplayUpdateInterval: 250,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads KEY=VALUE lines from r. Blank lines and lines starting with '#'
// are ignored.
func Parse(r io.Reader) (*Config, error) {
	cfg := Defaults()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

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

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_COMPASS":
		c.MQTTClientIDCompass = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_HEADING":
		c.TopicHeading = value
	case "TOPIC_MAG":
		c.TopicMag = value
	case "TOPIC_GPS":
		c.TopicGPS = value

	// HMC5883L hardware
	case "HMC_I2C_BUS":
		c.HMCI2CBus = value
	case "HMC_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 7)
		if err != nil {
			return fmt.Errorf("invalid HMC_I2C_ADDR %q: %w", value, err)
		}
		c.HMCI2CAddr = uint16(addr)
	case "HMC_GAIN":
		g, err := hmc5883l.ParseGain(value)
		if err != nil {
			return fmt.Errorf("HMC_GAIN: %w", err)
		}
		c.HMCGain = g
	case "HMC_AVG_SAMPLES":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HMC_AVG_SAMPLES %q: %w", value, err)
		}
		if val != 1 && val != 2 && val != 4 && val != 8 {
			return fmt.Errorf("HMC_AVG_SAMPLES must be 1, 2, 4 or 8, got %d", val)
		}
		c.HMCAvgSamples = val
	case "HMC_ODR_HZ":
		val, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid HMC_ODR_HZ %q: %w", value, err)
		}
		switch val {
		case 0.75, 1.5, 3, 7.5, 15, 30, 75:
		default:
			return fmt.Errorf("HMC_ODR_HZ must be one of 0.75, 1.5, 3, 7.5, 15, 30, 75, got %v", val)
		}
		c.HMCODRHz = val
	case "HMC_SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HMC_SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.HMCSampleInterval = interval

	// Heading correction
	case "DECLINATION_DEG":
		val, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid DECLINATION_DEG %q: %w", value, err)
		}
		c.DeclinationDeg = val
	case "DECLINATION_FROM_GPS":
		val, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DECLINATION_FROM_GPS %q: %w", value, err)
		}
		c.DeclinationFromGPS = val

	// Calibration
	case "CALIBRATION_SAMPLES":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CALIBRATION_SAMPLES %q: %w", value, err)
		}
		if val <= 0 {
			return fmt.Errorf("CALIBRATION_SAMPLES must be positive, got %d", val)
		}
		c.CalibrationSamples = val
	case "CALIBRATION_DELAY_MS":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CALIBRATION_DELAY_MS %q: %w", value, err)
		}
		if val <= 0 {
			return fmt.Errorf("CALIBRATION_DELAY_MS must be positive, got %d", val)
		}
		c.CalibrationDelayMS = val
	case "CALIBRATION_FILE":
		c.CalibrationFile = value

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, err)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.HMCSampleInterval <= 0 {
		return fmt.Errorf("HMC_SAMPLE_INTERVAL must be positive")
	}
	if c.GPSBaudRate <= 0 {
		return fmt.Errorf("GPS_BAUD_RATE must be positive")
	}
	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be in 1..65535, got %d", c.WebServerPort)
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive")
	}
	return nil
}

// HMCOpts returns the driver options described by c.
func (c *Config) HMCOpts() hmc5883l.Opts {
	opts := hmc5883l.DefaultOpts
	opts.Addr = c.HMCI2CAddr
	opts.Gain = c.HMCGain
	opts.Averaging = c.HMCAvgSamples
	opts.ODRHz = c.HMCODRHz
	if c.CalibrationDelayMS > 0 {
		opts.CalibrationDelay = time.Duration(c.CalibrationDelayMS) * time.Millisecond
	}
	return opts
}

// InitGlobal initializes the global configuration from file. Only the first
// call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
