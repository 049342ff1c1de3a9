package appconfig

import (
	"os"
	"path/filepath"
	"time"

	"pkt.systems/yukora/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	Console       ConsoleConfig `mapstructure:"console" yaml:"console"`
	Scripts       ScriptsConfig `mapstructure:"scripts" yaml:"scripts"`
	Theme         string        `mapstructure:"theme" yaml:"theme"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
	SSH           SSHConfig     `mapstructure:"ssh" yaml:"ssh"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// ConsoleConfig controls playback consoles.
type ConsoleConfig struct {
	LogMaxLines     int     `mapstructure:"log_max_lines" yaml:"log_max_lines"`
	ResponseDelayMS int     `mapstructure:"response_delay_ms" yaml:"response_delay_ms"`
	TimeScale       float64 `mapstructure:"time_scale" yaml:"time_scale"`
	MaxConsoles     int     `mapstructure:"max_consoles" yaml:"max_consoles"`
}

// ScriptsConfig points at an optional YAML script pack.
type ScriptsConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr              string `mapstructure:"addr" yaml:"addr"`
	BaseURL           string `mapstructure:"base_url" yaml:"base_url"`
	BasePath          string `mapstructure:"base_path" yaml:"base_path"`
	HubHistory        int    `mapstructure:"hub_history" yaml:"hub_history"`
	SessionTTLMinutes int    `mapstructure:"session_ttl_minutes" yaml:"session_ttl_minutes"`
}

// SSHConfig configures the SSH server.
type SSHConfig struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	HostKeyPath string `mapstructure:"host_key_path" yaml:"host_key_path"`
	IdlePrompt  string `mapstructure:"idle_prompt" yaml:"idle_prompt"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Console: ConsoleConfig{
			LogMaxLines:     schema.DefaultLogMaxLines,
			ResponseDelayMS: int(schema.DefaultResponseDelay / time.Millisecond),
			TimeScale:       1,
			MaxConsoles:     256,
		},
		Scripts: ScriptsConfig{
			File: "",
		},
		Theme: string(schema.DefaultTheme),
		HTTP: HTTPConfig{
			Addr:              ":27580",
			BaseURL:           "",
			BasePath:          "",
			HubHistory:        512,
			SessionTTLMinutes: 30,
		},
		SSH: SSHConfig{
			Addr:        ":27522",
			HostKeyPath: filepath.Join(home, ".yukora", "ssh_host_key"),
			IdlePrompt:  "yukora> ",
		},
	}, nil
}

// ServiceConfig converts the console section to the core service config.
func (c Config) ServiceConfig() schema.ServiceConfig {
	return schema.ServiceConfig{
		LogMaxLines:   c.Console.LogMaxLines,
		ResponseDelay: time.Duration(c.Console.ResponseDelayMS) * time.Millisecond,
		TimeScale:     c.Console.TimeScale,
		MaxConsoles:   c.Console.MaxConsoles,
	}
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".yukora", "config.yaml"), nil
}
