package service

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config is formd's YAML configuration.  Flags override it.
type Config struct {
	// Listen is the HTTP listen address ("0.0.0.0:8080").
	Listen string `yaml:"listen"`

	// TemplatesDir holds the template JSON/YAML files.
	TemplatesDir string `yaml:"templatesDir"`

	// Store is "mem", "bolt", or "sqlite".
	Store string `yaml:"store"`

	// DBFile is the bolt/sqlite database path.
	DBFile string `yaml:"dbFile"`

	// RefreshCron, when set, schedules template cache reloads.
	RefreshCron string `yaml:"refreshCron"`

	MQTT struct {
		Broker   string `yaml:"broker"`
		ClientID string `yaml:"clientId"`
		Topic    string `yaml:"topic"`
	} `yaml:"mqtt"`

	Debug bool `yaml:"debug"`
}

// DefaultConfig is what you get with no config file.
func DefaultConfig() *Config {
	c := &Config{
		Listen:       ":8080",
		TemplatesDir: "templates",
		Store:        "mem",
		DBFile:       "forms.db",
	}
	return c
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(filename string) (*Config, error) {
	c := DefaultConfig()
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(bs, c); err != nil {
		return nil, err
	}
	return c, nil
}
