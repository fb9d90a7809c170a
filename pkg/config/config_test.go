package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadReaderAppliesDefaults(t *testing.T) {
	c, err := LoadReader(strings.NewReader(`host: blynk.example.com`))
	if err != nil {
		t.Fatal(err)
	}
	if c.Host != "blynk.example.com" {
		t.Errorf("Host = %q", c.Host)
	}
	if c.Port != DefaultPort {
		t.Errorf("Port = %d, want default %d", c.Port, DefaultPort)
	}
	if c.PingInterval != DefaultPingInterval {
		t.Errorf("PingInterval = %v, want default %v", c.PingInterval, DefaultPingInterval)
	}
}

func TestLoadReaderHonoursExplicitValues(t *testing.T) {
	doc := `
host: blynk.example.com
port: 8443
response_timeout: 5s
max_reconnect_attempts: 3
`
	c, err := LoadReader(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if c.Port != 8443 {
		t.Errorf("Port = %d, want 8443", c.Port)
	}
	if c.ResponseTimeout != 5*time.Second {
		t.Errorf("ResponseTimeout = %v, want 5s", c.ResponseTimeout)
	}
	if c.MaxReconnectAttempts != 3 {
		t.Errorf("MaxReconnectAttempts = %d, want 3", c.MaxReconnectAttempts)
	}
}

func TestLoadReaderEmptyDocumentUsesAllDefaults(t *testing.T) {
	c, err := LoadReader(strings.NewReader(``))
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.Host = ""
	if *c != want {
		t.Errorf("c = %+v, want %+v", *c, want)
	}
}
