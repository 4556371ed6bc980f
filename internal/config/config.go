package config

import "time"

// Backend selectors.
const (
	BackendFake      = "fake"
	BackendDevRfkill = "devrfkill"
)

// Config holds the full daemon configuration.
type Config struct {
	// Coordinator timing
	DebounceWindow time.Duration `json:"debounceWindow"`
	Workers        int           `json:"workers"`

	// Backend selection
	Backend       string `json:"backend"`
	RfkillDevice  string `json:"rfkillDevice"`
	InputGlob     string `json:"inputGlob"`

	// Telemetry
	EventBufferSize   int           `json:"eventBufferSize"`
	HeartbeatInterval time.Duration `json:"heartbeatInterval"`
	HeartbeatJitter   time.Duration `json:"heartbeatJitter"`

	// Operational HTTP surface
	ListenAddr   string        `json:"listenAddr"`
	ReadTimeout  time.Duration `json:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout"`
	IdleTimeout  time.Duration `json:"idleTimeout"`

	// Auth (empty secret and PEM disables auth)
	AuthAlgorithm    string `json:"authAlgorithm"`
	AuthSecretKey    string `json:"-"`
	AuthPublicKeyPEM string `json:"authPublicKeyPem"`

	// Audit
	AuditDir string `json:"auditDir"`
}

// Defaults returns the baseline configuration. The 200 ms debounce
// window matches the hotkey bounce and multi-node duplicate suppression
// the coordinator is built around.
func Defaults() *Config {
	return &Config{
		DebounceWindow: 200 * time.Millisecond,
		Workers:        2,

		Backend:      BackendDevRfkill,
		RfkillDevice: "",
		InputGlob:    "",

		EventBufferSize:   50,
		HeartbeatInterval: 15 * time.Second,
		HeartbeatJitter:   2 * time.Second,

		ListenAddr:  ":8000",
		ReadTimeout: 30 * time.Second,
		// No write deadline: the telemetry stream is long-lived.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,

		AuthAlgorithm: "HS256",

		AuditDir: "logs",
	}
}
