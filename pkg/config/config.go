/*
Package config manages the TOML config for autocomplete services.

Besides server and CLI options, the file declares the triggers the engine
answers to. A trigger carries either a static list or a tree; resolver
functions can only be supplied from code.

	[[trigger]]
	trigger = "@"
	color = "#6db9fd"
	list = ["Ali", "Alireza", "Hassan"]

	[[trigger]]
	trigger = "$"
	[trigger.tree]
	default_trigger = ":"
	default_color = "#ffa247"

	[[trigger.tree.entry]]
	key = "Sheet1"
	list = ["column1", "column2"]

	[[trigger.tree.entry]]
	key = "Sheet2"

An entry without list or tree is a terminal leaf.
*/
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/parsisolution/autocomplete/internal/utils"
)

const appName = "autocomplete"

// ErrPartialConfig is returned with a salvaged config when the file failed to
// decode. Its server and cli sections may be usable, its triggers are the
// defaults and must not replace a running engine.
var ErrPartialConfig = errors.New("config: file did not decode, triggers not loaded")

// Config holds the entire config structure
type Config struct {
	Server   ServerConfig    `toml:"server"`
	CLI      CliConfig       `toml:"cli"`
	Triggers []TriggerConfig `toml:"trigger"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	// MaxText caps the request text length, in runes.
	MaxText int `toml:"max_text"`
	// TimeoutMs bounds a single suggest request. Zero disables the bound.
	TimeoutMs int  `toml:"timeout_ms"`
	Watch     bool `toml:"watch"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	RemoveTrailing bool `toml:"remove_trailing"`
	SpaceAfter     bool `toml:"space_after"`
}

// TriggerConfig is the file form of suggest.Trigger.
type TriggerConfig struct {
	Trigger string      `toml:"trigger"`
	Pattern string      `toml:"pattern,omitempty"`
	Color   string      `toml:"color,omitempty"`
	Mode    string      `toml:"mode,omitempty"`
	List    []string    `toml:"list,omitempty"`
	Tree    *TreeConfig `toml:"tree,omitempty"`
}

// TreeConfig is the file form of suggest.Tree.
type TreeConfig struct {
	DefaultTrigger string        `toml:"default_trigger,omitempty"`
	DefaultColor   string        `toml:"default_color,omitempty"`
	Entries        []EntryConfig `toml:"entry"`
}

// EntryConfig is a named tree entry. Without List and Tree it is a leaf.
type EntryConfig struct {
	Key     string      `toml:"key"`
	Trigger string      `toml:"trigger,omitempty"`
	Color   string      `toml:"color,omitempty"`
	List    []string    `toml:"list,omitempty"`
	Tree    *TreeConfig `toml:"tree,omitempty"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. $XDG_CONFIG_HOME/autocomplete or ~/.config/autocomplete
// 2. ~/Library/Application Support/autocomplete (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}

	candidates := []string{filepath.Join(homeDir, ".config", appName)}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append([]string{filepath.Join(xdg, appName)}, candidates...)
	}
	candidates = append(candidates, filepath.Join(homeDir, "Library", "Application Support", appName))

	for _, dir := range candidates {
		if result := utils.CheckDirStatus(dir); result.Writable {
			return dir, nil
		}
	}

	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/autocomplete/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err == nil || errors.Is(err, ErrPartialConfig) {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if errors.Is(err, ErrPartialConfig) {
		log.Warnf("Using default triggers: %v", err)
	} else if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MaxText:   4096,
			TimeoutMs: 2000,
			Watch:     false,
		},
		CLI: CliConfig{
			RemoveTrailing: false,
			SpaceAfter:     true,
		},
		Triggers: []TriggerConfig{
			{
				Trigger: ":",
				Color:   "#f5a97f",
				List:    []string{"smile", "sweat_smile", "tada", "thumbsup", "thinking"},
			},
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file. Triggers declared in the file replace
// the default ones; invalid triggers are reported as an error. A file that
// does not decode yields the salvaged config together with ErrPartialConfig.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	config.Triggers = nil

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// tryPartialParse salvages the scalar sections of a file that failed to
// decode. Triggers cannot be trusted in that case and fall back to defaults.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	raw, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, ErrPartialConfig
	}

	if section, ok := utils.ExtractSection(raw, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(raw, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	log.Warnf("Triggers in %s were not loaded, using the default triggers", configPath)
	return config, ErrPartialConfig
}

// extractServerConfig extracts server configuration from a map
func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_text"); ok {
		server.MaxText = val
	}
	if val, ok := utils.ExtractInt64(data, "timeout_ms"); ok {
		server.TimeoutMs = val
	}
	if val, ok := utils.ExtractBool(data, "watch"); ok {
		server.Watch = val
	}
}

// extractCliConfig extracts CLI config from a map
func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractBool(data, "remove_trailing"); ok {
		cli.RemoveTrailing = val
	}
	if val, ok := utils.ExtractBool(data, "space_after"); ok {
		cli.SpaceAfter = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() (string, error) {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return "", err
	}
	return defaultPath, SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return "builtin"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
