package service

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "formd.yaml")
	src := []byte(`
listen: ":9090"
store: bolt
dbFile: /var/lib/formd/forms.db
refreshCron: "0 * * * *"
mqtt:
  broker: tcp://localhost:1883
  topic: forms/events
debug: true
`)
	if err := os.WriteFile(filename, src, 0644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadConfig(filename)
	if err != nil {
		t.Fatal(err)
	}
	if c.Listen != ":9090" || c.Store != "bolt" || c.DBFile != "/var/lib/formd/forms.db" {
		t.Fatalf("config: %+v", c)
	}
	if c.MQTT.Broker != "tcp://localhost:1883" || c.MQTT.Topic != "forms/events" {
		t.Fatalf("mqtt: %+v", c.MQTT)
	}
	if !c.Debug {
		t.Fatal("debug not set")
	}
	// Unset keys keep their defaults.
	if c.TemplatesDir != "templates" {
		t.Fatalf("templatesDir: %q", c.TemplatesDir)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/no/such/file.yaml"); err == nil {
		t.Fatal("expected an error")
	}
}
