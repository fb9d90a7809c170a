package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config mirrors the fields the session controller recognizes. Any field
// absent from a loaded YAML document keeps its Default* value.
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	ResponseTimeout time.Duration `yaml:"response_timeout"`
	PingInterval    time.Duration `yaml:"ping_interval"`

	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay     time.Duration `yaml:"reconnect_max_delay"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`

	// InsecureSkipVerify selects the default "accept any cert" TLS policy
	// when true. A caller wanting a stricter policy leaves this false and
	// supplies its own verification hook programmatically; YAML alone
	// cannot express an arbitrary certificate-verification callback.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// Default port and timing values, matching the controller's built-in
// defaults when no configuration file is supplied at all.
const (
	DefaultPort                 = 9443
	DefaultResponseTimeout       = 10 * time.Second
	DefaultPingInterval          = 10 * time.Second
	DefaultReconnectBaseDelay    = 2 * time.Second
	DefaultReconnectMaxDelay     = 30 * time.Second
	DefaultMaxReconnectAttempts = 10
)

// Default returns a Config populated with the controller's built-in
// defaults and no host set.
func Default() Config {
	return Config{
		Port:                 DefaultPort,
		ResponseTimeout:      DefaultResponseTimeout,
		PingInterval:         DefaultPingInterval,
		ReconnectBaseDelay:   DefaultReconnectBaseDelay,
		ReconnectMaxDelay:    DefaultReconnectMaxDelay,
		MaxReconnectAttempts: DefaultMaxReconnectAttempts,
		InsecureSkipVerify:   true,
	}
}

// applyDefaults fills any zero-valued field in c with the built-in default.
func applyDefaults(c *Config) {
	d := Default()
	if c.Port == 0 {
		c.Port = d.Port
	}
	if c.ResponseTimeout == 0 {
		c.ResponseTimeout = d.ResponseTimeout
	}
	if c.PingInterval == 0 {
		c.PingInterval = d.PingInterval
	}
	if c.ReconnectBaseDelay == 0 {
		c.ReconnectBaseDelay = d.ReconnectBaseDelay
	}
	if c.ReconnectMaxDelay == 0 {
		c.ReconnectMaxDelay = d.ReconnectMaxDelay
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = d.MaxReconnectAttempts
	}
}

// LoadReader parses a Config from r, applying defaults to any field the
// document leaves unset.
func LoadReader(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	applyDefaults(&c)
	return &c, nil
}

// LoadFile reads and parses a Config from the YAML file at path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()
	return LoadReader(f)
}
