/*
Package config manages TOML config for GlideServe services.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bastiangx/glideserve/internal/utils"
	"github.com/bastiangx/glideserve/pkg/autocommit"
	"github.com/bastiangx/glideserve/pkg/engine"
	"github.com/bastiangx/glideserve/pkg/glide"
	"github.com/bastiangx/glideserve/pkg/suggest"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Engine     EngineConfig     `toml:"engine"`
	Glide      GlideConfig      `toml:"glide"`
	Suggest    SuggestConfig    `toml:"suggest"`
	AutoCommit AutoCommitConfig `toml:"autocommit"`
	Dict       DictConfig       `toml:"dict"`
	Server     ServerConfig     `toml:"server"`
}

// EngineConfig sizes the worker pool and result caches.
type EngineConfig struct {
	Workers          int    `toml:"workers"`
	QueueSize        int    `toml:"queue_size"`
	SuggestCacheSize int    `toml:"suggest_cache_size"`
	Locale           string `toml:"locale"`
}

// GlideConfig holds gesture recognition tuning.
type GlideConfig struct {
	DeviceTier          string  `toml:"device_tier"`
	PruningThreshold    float64 `toml:"pruning_threshold"`
	ShapeSigma          float64 `toml:"shape_sigma"`
	LocationSigmaFactor float64 `toml:"location_sigma_factor"`
	LoopFactor          float64 `toml:"loop_factor"`
	PrunerCacheSize     int     `toml:"pruner_cache_size"`
	TemplateCacheSize   int     `toml:"template_cache_size"`
	ResultCacheSize     int     `toml:"result_cache_size"`
}

// SuggestConfig holds typed ranking options.
type SuggestConfig struct {
	MinFreqThreshold   int     `toml:"min_frequency_threshold"`
	MinFreqShortPrefix int     `toml:"min_frequency_short_prefix"`
	PrefixWeight       float64 `toml:"prefix_weight"`
	FuzzyBase          float64 `toml:"fuzzy_base"`
	FuzzyPenalty       float64 `toml:"fuzzy_distance_penalty"`
	EnableFilter       bool    `toml:"enable_filter"`
	Emoji              bool    `toml:"emoji"`
	Clipboard          bool    `toml:"clipboard"`
}

// AutoCommitConfig selects the auto-commit tier.
type AutoCommitConfig struct {
	Tier autocommit.Tier `toml:"tier"`
}

// DictConfig holds dictionary options.
type DictConfig struct {
	MaxWords int    `toml:"max_words"`
	UserDB   string `toml:"user_db"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxLimit  int `toml:"max_limit"`
	MinPrefix int `toml:"min_prefix"`
	MaxPrefix int `toml:"max_prefix"`
	MaxPoints int `toml:"max_points"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "glideserve")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "glideserve")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
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
// 2. Default path: [UserConfigDir]/glideserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
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
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	g := glide.DefaultOptions()
	s := suggest.DefaultOptions()
	return &Config{
		Engine: EngineConfig{
			Workers:          2,
			QueueSize:        64,
			SuggestCacheSize: 10,
		},
		Glide: GlideConfig{
			DeviceTier:          g.Tier.String(),
			PruningThreshold:    g.PruningThreshold,
			ShapeSigma:          g.ShapeSigma,
			LocationSigmaFactor: g.LocationSigmaFactor,
			LoopFactor:          g.LoopFactor,
			PrunerCacheSize:     g.PrunerCacheSize,
			TemplateCacheSize:   g.TemplateCacheSize,
			ResultCacheSize:     g.ResultCacheSize,
		},
		Suggest: SuggestConfig{
			MinFreqThreshold:   s.MinFrequency,
			MinFreqShortPrefix: s.MinShortFrequency,
			PrefixWeight:       s.PrefixWeight,
			FuzzyBase:          s.FuzzyBase,
			FuzzyPenalty:       s.FuzzyDistancePenalty,
			EnableFilter:       s.FilterInput,
			Emoji:              true,
			Clipboard:          true,
		},
		AutoCommit: AutoCommitConfig{
			Tier: autocommit.Moderate,
		},
		Dict: DictConfig{
			MaxWords: 50000,
		},
		Server: ServerConfig{
			MaxLimit:  64,
			MinPrefix: 1,
			MaxPrefix: 60,
			MaxPoints: 2000,
		},
	}
}

// Validate checks value ranges. A config that fails here must not reach a
// running engine.
func (c *Config) Validate() error {
	var errs []error
	if c.Engine.Workers < 1 {
		errs = append(errs, fmt.Errorf("engine.workers must be at least 1, got %d", c.Engine.Workers))
	}
	if c.Engine.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("engine.queue_size must not be negative, got %d", c.Engine.QueueSize))
	}
	if _, err := glide.ParseDeviceTier(c.Glide.DeviceTier); err != nil {
		errs = append(errs, fmt.Errorf("glide.device_tier: %w", err))
	}
	if c.Glide.ShapeSigma < 0 || c.Glide.LocationSigmaFactor < 0 || c.Glide.PruningThreshold < 0 {
		errs = append(errs, errors.New("glide sigmas and pruning threshold must not be negative"))
	}
	if c.Glide.LoopFactor < 0 || c.Glide.LoopFactor > 1 {
		errs = append(errs, fmt.Errorf("glide.loop_factor must be within [0, 1], got %g", c.Glide.LoopFactor))
	}
	if c.Suggest.MinFreqThreshold < 0 || c.Suggest.MinFreqThreshold > 255 {
		errs = append(errs, fmt.Errorf("suggest.min_frequency_threshold must be within [0, 255], got %d", c.Suggest.MinFreqThreshold))
	}
	if c.Suggest.MinFreqShortPrefix < 0 || c.Suggest.MinFreqShortPrefix > 255 {
		errs = append(errs, fmt.Errorf("suggest.min_frequency_short_prefix must be within [0, 255], got %d", c.Suggest.MinFreqShortPrefix))
	}
	if c.Suggest.PrefixWeight > 1 || c.Suggest.FuzzyBase > 1 {
		errs = append(errs, errors.New("suggest weights must not exceed 1"))
	}
	if t := c.AutoCommit.Tier; t < autocommit.Conservative || t > autocommit.Aggressive {
		errs = append(errs, fmt.Errorf("autocommit.tier %d is not a tier", int(t)))
	}
	if c.Server.MaxLimit < 1 {
		errs = append(errs, fmt.Errorf("server.max_limit must be at least 1, got %d", c.Server.MaxLimit))
	}
	if c.Server.MinPrefix < 0 || c.Server.MaxPrefix < c.Server.MinPrefix {
		errs = append(errs, fmt.Errorf("server prefix bounds [%d, %d] are invalid", c.Server.MinPrefix, c.Server.MaxPrefix))
	}
	return errors.Join(errs...)
}

// EngineOptions converts the config into engine options.
func (c *Config) EngineOptions() (engine.Options, error) {
	tier, err := glide.ParseDeviceTier(c.Glide.DeviceTier)
	if err != nil {
		return engine.Options{}, err
	}
	opts := engine.DefaultOptions()
	opts.Workers = c.Engine.Workers
	opts.QueueSize = c.Engine.QueueSize
	opts.SuggestCacheSize = c.Engine.SuggestCacheSize
	opts.Locale = c.Engine.Locale
	opts.Tier = c.AutoCommit.Tier
	opts.Emoji = c.Suggest.Emoji
	opts.Clipboard = c.Suggest.Clipboard

	opts.Glide.Tier = tier
	opts.Glide.PruningThreshold = c.Glide.PruningThreshold
	opts.Glide.ShapeSigma = c.Glide.ShapeSigma
	opts.Glide.LocationSigmaFactor = c.Glide.LocationSigmaFactor
	opts.Glide.LoopFactor = c.Glide.LoopFactor
	opts.Glide.PrunerCacheSize = c.Glide.PrunerCacheSize
	opts.Glide.TemplateCacheSize = c.Glide.TemplateCacheSize
	opts.Glide.ResultCacheSize = c.Glide.ResultCacheSize

	opts.Suggest.MinFrequency = c.Suggest.MinFreqThreshold
	opts.Suggest.MinShortFrequency = c.Suggest.MinFreqShortPrefix
	opts.Suggest.PrefixWeight = c.Suggest.PrefixWeight
	opts.Suggest.FuzzyBase = c.Suggest.FuzzyBase
	opts.Suggest.FuzzyDistancePenalty = c.Suggest.FuzzyPenalty
	opts.Suggest.FilterInput = c.Suggest.EnableFilter
	return opts, nil
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

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file. Values that fail validation are an
// error; a file that does not parse is recovered section by section.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		config = tryPartialParse(configPath)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return config, nil
}

// tryPartialParse keeps every well-typed value it can find.
func tryPartialParse(configPath string) *Config {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config
	}

	if section, ok := utils.ExtractSection(tempConfig, "engine"); ok {
		extractEngineConfig(section, &config.Engine)
	}
	if section, ok := utils.ExtractSection(tempConfig, "glide"); ok {
		extractGlideConfig(section, &config.Glide)
	}
	if section, ok := utils.ExtractSection(tempConfig, "suggest"); ok {
		extractSuggestConfig(section, &config.Suggest)
	}
	if section, ok := utils.ExtractSection(tempConfig, "autocommit"); ok {
		if val, ok := utils.ExtractString(section, "tier"); ok {
			if tier, err := autocommit.ParseTier(val); err == nil {
				config.AutoCommit.Tier = tier
			} else {
				log.Warnf("Ignoring autocommit.tier: %v", err)
			}
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "dict"); ok {
		extractDictConfig(section, &config.Dict)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	return config
}

func extractEngineConfig(data map[string]any, e *EngineConfig) {
	if val, ok := utils.ExtractInt64(data, "workers"); ok {
		e.Workers = val
	}
	if val, ok := utils.ExtractInt64(data, "queue_size"); ok {
		e.QueueSize = val
	}
	if val, ok := utils.ExtractInt64(data, "suggest_cache_size"); ok {
		e.SuggestCacheSize = val
	}
	if val, ok := utils.ExtractString(data, "locale"); ok {
		e.Locale = val
	}
}

func extractGlideConfig(data map[string]any, g *GlideConfig) {
	if val, ok := utils.ExtractString(data, "device_tier"); ok {
		g.DeviceTier = val
	}
	if val, ok := utils.ExtractFloat64(data, "pruning_threshold"); ok {
		g.PruningThreshold = val
	}
	if val, ok := utils.ExtractFloat64(data, "shape_sigma"); ok {
		g.ShapeSigma = val
	}
	if val, ok := utils.ExtractFloat64(data, "location_sigma_factor"); ok {
		g.LocationSigmaFactor = val
	}
	if val, ok := utils.ExtractFloat64(data, "loop_factor"); ok {
		g.LoopFactor = val
	}
	if val, ok := utils.ExtractInt64(data, "pruner_cache_size"); ok {
		g.PrunerCacheSize = val
	}
	if val, ok := utils.ExtractInt64(data, "template_cache_size"); ok {
		g.TemplateCacheSize = val
	}
	if val, ok := utils.ExtractInt64(data, "result_cache_size"); ok {
		g.ResultCacheSize = val
	}
}

func extractSuggestConfig(data map[string]any, s *SuggestConfig) {
	if val, ok := utils.ExtractInt64(data, "min_frequency_threshold"); ok {
		s.MinFreqThreshold = val
	}
	if val, ok := utils.ExtractInt64(data, "min_frequency_short_prefix"); ok {
		s.MinFreqShortPrefix = val
	}
	if val, ok := utils.ExtractFloat64(data, "prefix_weight"); ok {
		s.PrefixWeight = val
	}
	if val, ok := utils.ExtractFloat64(data, "fuzzy_base"); ok {
		s.FuzzyBase = val
	}
	if val, ok := utils.ExtractFloat64(data, "fuzzy_distance_penalty"); ok {
		s.FuzzyPenalty = val
	}
	if val, ok := utils.ExtractBool(data, "enable_filter"); ok {
		s.EnableFilter = val
	}
	if val, ok := utils.ExtractBool(data, "emoji"); ok {
		s.Emoji = val
	}
	if val, ok := utils.ExtractBool(data, "clipboard"); ok {
		s.Clipboard = val
	}
}

func extractDictConfig(data map[string]any, dict *DictConfig) {
	if val, ok := utils.ExtractInt64(data, "max_words"); ok {
		dict.MaxWords = val
	}
	if val, ok := utils.ExtractString(data, "user_db"); ok {
		dict.UserDB = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "min_prefix"); ok {
		server.MinPrefix = val
	}
	if val, ok := utils.ExtractInt64(data, "max_prefix"); ok {
		server.MaxPrefix = val
	}
	if val, ok := utils.ExtractInt64(data, "max_points"); ok {
		server.MaxPoints = val
	}
}

// RebuildConfigFile overwrites the config at path with the defaults. An
// empty path rebuilds the default config file.
func RebuildConfigFile(path string) (string, error) {
	if path == "" {
		defaultPath, err := GetDefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return "", err
	}
	return path, utils.SaveTOMLFile(DefaultConfig(), path)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// ErrNotSaved wraps the write failure of an otherwise valid update.
var ErrNotSaved = errors.New("config not saved")

// Update changes the runtime-tunable values and saves to configPath unless
// it is empty. Nil arguments are left alone. On a validation error c must be
// discarded; on ErrNotSaved it holds the new values.
func (c *Config) Update(configPath string, tier *autocommit.Tier, maxLimit *int) error {
	if tier != nil {
		c.AutoCommit.Tier = *tier
	}
	if maxLimit != nil {
		c.Server.MaxLimit = *maxLimit
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if configPath == "" {
		return nil
	}
	if err := SaveConfig(c, configPath); err != nil {
		return fmt.Errorf("%w: %w", ErrNotSaved, err)
	}
	return nil
}
