// Config loading for the mirralism CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/constraint"
	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/paths"
	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/personality"
	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "MIRRALISM"

	cfgKeyDBPath        = "db_path"
	cfgKeyQuarantineDir = "quarantine_dir"
	cfgKeyReportsDir    = "reports_dir"
	cfgKeyLogLevel      = "log.level"
	cfgKeyLogFormat     = "log.format"
	cfgKeyRules         = "rules"
	cfgKeyBase          = "personality.base"
	cfgKeyCap           = "personality.cap"
	cfgKeyCategories    = "personality.categories"
	cfgKeyExclude       = "scan.exclude"
)

const configHeader = `# mirralism configuration
#
# Relative paths are resolved against the project root. Every key can be
# overridden from the environment, e.g. MIRRALISM_LOG_LEVEL=debug.
`

// fileConfig is the on-disk shape of config.yaml.
type fileConfig struct {
	DBPath        string `yaml:"db_path,omitempty" json:"db_path,omitempty"`
	QuarantineDir string `yaml:"quarantine_dir,omitempty" json:"quarantine_dir,omitempty"`
	ReportsDir    string `yaml:"reports_dir,omitempty" json:"reports_dir,omitempty"`
	Log           struct {
		Level  string `yaml:"level" json:"level"`
		Format string `yaml:"format" json:"format"`
	} `yaml:"log" json:"log"`
	Rules       []types.Rule            `yaml:"rules,omitempty" json:"rules,omitempty"`
	Personality types.PersonalityConfig `yaml:"personality" json:"personality"`
	Scan        struct {
		Exclude []string `yaml:"exclude" json:"exclude"`
	} `yaml:"scan" json:"scan"`
}

func defaultFileConfig() fileConfig {
	var fc fileConfig
	fc.Log.Level = "info"
	fc.Log.Format = types.LogFormatConsole
	fc.Rules = constraint.DefaultRules()
	fc.Personality = types.PersonalityConfig{
		Base:       personality.DefaultBase,
		Cap:        personality.DefaultCap,
		Categories: personality.DefaultCategories(),
	}
	fc.Scan.Exclude = []string{}
	return fc
}

// toFileConfig renders a resolved Config back into file form, filling in
// the built-in rules and keyword categories when none are configured.
func toFileConfig(cfg types.Config) fileConfig {
	var fc fileConfig
	fc.DBPath = cfg.DBPath
	fc.QuarantineDir = cfg.QuarantineDir
	fc.ReportsDir = cfg.ReportsDir
	fc.Log.Level = cfg.LogLevel
	fc.Log.Format = cfg.LogFormat
	fc.Rules = cfg.Rules
	fc.Personality = cfg.Personality
	fc.Scan.Exclude = cfg.Exclude
	if len(fc.Rules) == 0 {
		fc.Rules = constraint.DefaultRules()
	}
	if len(fc.Personality.Categories) == 0 {
		fc.Personality.Categories = personality.DefaultCategories()
	}
	return fc
}

func marshalConfig(fc fileConfig) ([]byte, error) {
	data, err := yaml.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run. A missing config.yaml is
// not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyLogFormat, types.LogFormatConsole)
	v.SetDefault(cfgKeyBase, personality.DefaultBase)
	v.SetDefault(cfgKeyCap, personality.DefaultCap)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// decodeConfig turns viper values into a Config rooted at root.
func decodeConfig(v *viper.Viper, root string) (types.Config, error) {
	layout := paths.NewLayout(root)
	cfg := types.Config{
		ProjectRoot:   root,
		DBPath:        paths.ResolveUnder(root, v.GetString(cfgKeyDBPath), layout.DB),
		QuarantineDir: paths.ResolveUnder(root, v.GetString(cfgKeyQuarantineDir), layout.Quarantine),
		ReportsDir:    paths.ResolveUnder(root, v.GetString(cfgKeyReportsDir), layout.Reports),
		LogLevel:      v.GetString(cfgKeyLogLevel),
		LogFormat:     v.GetString(cfgKeyLogFormat),
		Exclude:       v.GetStringSlice(cfgKeyExclude),
		Personality: types.PersonalityConfig{
			Base: v.GetFloat64(cfgKeyBase),
			Cap:  v.GetFloat64(cfgKeyCap),
		},
	}
	if err := v.UnmarshalKey(cfgKeyRules, &cfg.Rules); err != nil {
		return cfg, fmt.Errorf("config %s: %w", cfgKeyRules, err)
	}
	if err := v.UnmarshalKey(cfgKeyCategories, &cfg.Personality.Categories); err != nil {
		return cfg, fmt.Errorf("config %s: %w", cfgKeyCategories, err)
	}
	return cfg, nil
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if none exists in
// configDir.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, paths.ConfigFileName)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := marshalConfig(defaultFileConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0o644)
}
