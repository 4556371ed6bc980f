package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Load merges Defaults() + RFKILL_* environment overrides + an optional
// config.json in the working directory, then validates.
func Load() (*Config, error) {
	return LoadFrom("config.json")
}

// LoadFrom is Load with an explicit config file path. A missing file is
// not an error; a malformed one is.
func LoadFrom(path string) (*Config, error) {
	cfg := Defaults()

	applyEnvOverrides(cfg)

	if _, err := os.Stat(path); err == nil {
		if err := mergeFile(cfg, path); err != nil {
			return nil, errors.Wrapf(err, "load %s", path)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return cfg, nil
}

// applyEnvOverrides applies RFKILL_* environment variables. Unparseable
// values fall back to the current setting.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RFKILL_DEBOUNCE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.DebounceWindow = d
		}
	}
	if v := os.Getenv("RFKILL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("RFKILL_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("RFKILL_DEVICE"); v != "" {
		cfg.RfkillDevice = v
	}
	if v := os.Getenv("RFKILL_INPUT_GLOB"); v != "" {
		cfg.InputGlob = v
	}
	if v := os.Getenv("RFKILL_EVENT_BUFFER_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.EventBufferSize = n
		}
	}
	if v := os.Getenv("RFKILL_HEARTBEAT_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HeartbeatInterval = d
		}
	}
	if v := os.Getenv("RFKILL_HEARTBEAT_JITTER"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HeartbeatJitter = d
		}
	}
	if v := os.Getenv("RFKILL_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("RFKILL_AUTH_ALGORITHM"); v != "" {
		cfg.AuthAlgorithm = v
	}
	if v := os.Getenv("RFKILL_AUTH_SECRET"); v != "" {
		cfg.AuthSecretKey = v
	}
	if v := os.Getenv("RFKILL_AUTH_PUBLIC_KEY_PEM"); v != "" {
		cfg.AuthPublicKeyPEM = v
	}
	if v := os.Getenv("RFKILL_AUDIT_DIR"); v != "" {
		cfg.AuditDir = v
	}
}

// fileConfig mirrors Config with duration strings, the way the file is
// actually written by operators.
type fileConfig struct {
	DebounceWindow    *string `json:"debounceWindow"`
	Workers           *int    `json:"workers"`
	Backend           *string `json:"backend"`
	RfkillDevice      *string `json:"rfkillDevice"`
	InputGlob         *string `json:"inputGlob"`
	EventBufferSize   *int    `json:"eventBufferSize"`
	HeartbeatInterval *string `json:"heartbeatInterval"`
	HeartbeatJitter   *string `json:"heartbeatJitter"`
	ListenAddr        *string `json:"listenAddr"`
	AuthAlgorithm     *string `json:"authAlgorithm"`
	AuthPublicKeyPEM  *string `json:"authPublicKeyPem"`
	AuditDir          *string `json:"auditDir"`
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return errors.Wrap(err, "parse config file")
	}

	if fc.DebounceWindow != nil {
		d, err := time.ParseDuration(*fc.DebounceWindow)
		if err != nil {
			return errors.Wrap(err, "debounceWindow")
		}
		cfg.DebounceWindow = d
	}
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	if fc.Backend != nil {
		cfg.Backend = *fc.Backend
	}
	if fc.RfkillDevice != nil {
		cfg.RfkillDevice = *fc.RfkillDevice
	}
	if fc.InputGlob != nil {
		cfg.InputGlob = *fc.InputGlob
	}
	if fc.EventBufferSize != nil {
		cfg.EventBufferSize = *fc.EventBufferSize
	}
	if fc.HeartbeatInterval != nil {
		d, err := time.ParseDuration(*fc.HeartbeatInterval)
		if err != nil {
			return errors.Wrap(err, "heartbeatInterval")
		}
		cfg.HeartbeatInterval = d
	}
	if fc.HeartbeatJitter != nil {
		d, err := time.ParseDuration(*fc.HeartbeatJitter)
		if err != nil {
			return errors.Wrap(err, "heartbeatJitter")
		}
		cfg.HeartbeatJitter = d
	}
	if fc.ListenAddr != nil {
		cfg.ListenAddr = *fc.ListenAddr
	}
	if fc.AuthAlgorithm != nil {
		cfg.AuthAlgorithm = *fc.AuthAlgorithm
	}
	if fc.AuthPublicKeyPEM != nil {
		cfg.AuthPublicKeyPEM = *fc.AuthPublicKeyPEM
	}
	if fc.AuditDir != nil {
		cfg.AuditDir = *fc.AuditDir
	}

	return nil
}
