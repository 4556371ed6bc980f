package config

import "github.com/pkg/errors"

// Validate enforces the configuration constraints.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	if cfg.DebounceWindow <= 0 {
		return errors.Errorf("debounce window must be positive, got %v", cfg.DebounceWindow)
	}
	if cfg.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}

	switch cfg.Backend {
	case BackendFake, BackendDevRfkill:
	default:
		return errors.Errorf("unknown backend %q", cfg.Backend)
	}

	if cfg.EventBufferSize < 1 {
		return errors.Errorf("event buffer size must be at least 1, got %d", cfg.EventBufferSize)
	}
	if cfg.HeartbeatInterval <= 0 {
		return errors.Errorf("heartbeat interval must be positive, got %v", cfg.HeartbeatInterval)
	}
	if cfg.HeartbeatJitter < 0 || cfg.HeartbeatJitter > cfg.HeartbeatInterval/2 {
		return errors.Errorf("heartbeat jitter %v must be within [0, interval/2]", cfg.HeartbeatJitter)
	}

	if cfg.ListenAddr == "" {
		return errors.New("listen address cannot be empty")
	}

	switch cfg.AuthAlgorithm {
	case "HS256", "RS256", "":
	default:
		return errors.Errorf("unsupported auth algorithm %q", cfg.AuthAlgorithm)
	}

	return nil
}
