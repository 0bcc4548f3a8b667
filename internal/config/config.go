package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codeindex-dev/codeindex/internal/errors"
)

// Config is the complete codeindexd configuration.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	Paths       PathsConfig       `yaml:"paths" json:"paths"`
	Filter      FilterConfig      `yaml:"filter" json:"filter"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
	Memory      MemoryConfig      `yaml:"memory" json:"memory"`
	Search      SearchConfig      `yaml:"search" json:"search"`
	Server      ServerConfig      `yaml:"server" json:"server"`
}

// PathsConfig configures which paths to include and exclude beyond the
// project's own gitignore rules.
type PathsConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// FilterConfig mirrors internal/filter's Policy: size
// ceilings and per-directory fan-out limits applied during a walk.
type FilterConfig struct {
	MaxFileSize                   int64            `yaml:"max_file_size" json:"max_file_size"`
	TypeSpecificLimits            map[string]int64 `yaml:"type_specific_limits" json:"type_specific_limits"`
	MaxFilesPerDirectory          int              `yaml:"max_files_per_directory" json:"max_files_per_directory"`
	MaxSubdirectoriesPerDirectory int              `yaml:"max_subdirectories_per_directory" json:"max_subdirectories_per_directory"`
	SkipLargeDirectories          []string         `yaml:"skip_large_directories" json:"skip_large_directories"`
	ExplicitInclusions            []string         `yaml:"explicit_inclusions" json:"explicit_inclusions"`
	LogDecisions                  bool             `yaml:"log_decisions" json:"log_decisions"`
}

// PerformanceConfig tunes the indexer's worker pool and watch behavior.
type PerformanceConfig struct {
	MaxWorkers    int    `yaml:"max_workers" json:"max_workers"`
	ChunkSize     int    `yaml:"chunk_size" json:"chunk_size"`
	CacheSize     int    `yaml:"cache_size" json:"cache_size"`
	WatchDebounce string `yaml:"watch_debounce" json:"watch_debounce"`
}

// MemoryConfig feeds internal/memory.Config.
type MemoryConfig struct {
	SoftLimitMB      uint64 `yaml:"soft_limit_mb" json:"soft_limit_mb"`
	HardLimitMB      uint64 `yaml:"hard_limit_mb" json:"hard_limit_mb"`
	GCThresholdMB    uint64 `yaml:"gc_threshold_mb" json:"gc_threshold_mb"`
	SpillThresholdMB uint64 `yaml:"spill_threshold_mb" json:"spill_threshold_mb"`
	MaxLoadedFiles   int    `yaml:"max_loaded_files" json:"max_loaded_files"`
	MaxCachedQueries int    `yaml:"max_cached_queries" json:"max_cached_queries"`
}

// SearchConfig configures the external search-tool dispatcher.
type SearchConfig struct {
	PreferredSearchTool string `yaml:"preferred_search_tool" json:"preferred_search_tool"`
	DefaultPageSize     int    `yaml:"default_page_size" json:"default_page_size"`
	FTSBackend          string `yaml:"fts_backend" json:"fts_backend"`
}

// ServerConfig configures the daemon's ambient logging.
type ServerConfig struct {
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// defaultExcludePatterns are always excluded on top of gitignore rules.
var defaultExcludePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
	"**/*.min.js",
	"**/*.min.css",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/pnpm-lock.yaml",
	"**/go.sum",
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Include: []string{},
			Exclude: defaultExcludePatterns,
		},
		Filter: FilterConfig{
			MaxFileSize:                   5 * 1024 * 1024,
			TypeSpecificLimits:            map[string]int64{},
			MaxFilesPerDirectory:          10000,
			MaxSubdirectoriesPerDirectory: 1000,
			SkipLargeDirectories:          nil,
			ExplicitInclusions:            nil,
			LogDecisions:                  false,
		},
		Performance: PerformanceConfig{
			MaxWorkers:    runtime.NumCPU(),
			ChunkSize:     100,
			CacheSize:     1000,
			WatchDebounce: "500ms",
		},
		Memory: MemoryConfig{
			SoftLimitMB:      512,
			HardLimitMB:      1024,
			GCThresholdMB:    768,
			SpillThresholdMB: 896,
			MaxLoadedFiles:   200,
			MaxCachedQueries: 100,
		},
		Search: SearchConfig{
			PreferredSearchTool: "",
			DefaultPageSize:     20,
			FTSBackend:          "sqlite",
		},
		Server: ServerConfig{
			LogLevel: "info",
		},
	}
}

// GetUserConfigPath returns the global configuration file path, following
// the XDG base directory specification.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "codeindex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "codeindex", "config.yaml")
	}
	return filepath.Join(home, ".config", "codeindex", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether the global configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, errors.ConfigErr(fmt.Sprintf("failed to load user config from %s", configPath), err)
	}
	return cfg, nil
}

// Load builds the effective configuration for dir by layering, in order
// of increasing precedence: hardcoded defaults, the global config, the
// project's .code-index.yaml, and CODEINDEX_* environment overrides.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	userCfg, err := loadUserConfig()
	if err != nil {
		return nil, err
	}
	if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigErr("invalid configuration", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".code-index.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}
	ymlPath := filepath.Join(dir, ".code-index.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}
	return nil
}

// loadYAML loads and deep-merges a config file on top of c. Unknown
// top-level keys are logged and ignored rather than silently accepted;
// unknown keys nested inside a known section are ignored without a log.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.ConfigErr(fmt.Sprintf("failed to read config file %s", path), err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return errors.ConfigErr(fmt.Sprintf("failed to parse config file %s", path), err)
	}
	warnUnknownKeys(path, raw)

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return errors.ConfigErr(fmt.Sprintf("failed to parse config file %s", path), err)
	}

	c.mergeWith(&parsed)
	return nil
}

var knownTopLevelKeys = map[string]bool{
	"version": true, "paths": true, "filter": true, "performance": true,
	"memory": true, "search": true, "server": true,
}

func warnUnknownKeys(path string, raw map[string]any) {
	for key := range raw {
		if !knownTopLevelKeys[key] {
			slog.Warn("config: ignoring unknown key", slog.String("file", path), slog.String("key", key))
		}
	}
}

// mergeWith overlays non-zero fields of other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if len(other.Paths.Include) > 0 {
		c.Paths.Include = other.Paths.Include
	}
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}

	if other.Filter.MaxFileSize != 0 {
		c.Filter.MaxFileSize = other.Filter.MaxFileSize
	}
	for ext, limit := range other.Filter.TypeSpecificLimits {
		if c.Filter.TypeSpecificLimits == nil {
			c.Filter.TypeSpecificLimits = map[string]int64{}
		}
		c.Filter.TypeSpecificLimits[ext] = limit
	}
	if other.Filter.MaxFilesPerDirectory != 0 {
		c.Filter.MaxFilesPerDirectory = other.Filter.MaxFilesPerDirectory
	}
	if other.Filter.MaxSubdirectoriesPerDirectory != 0 {
		c.Filter.MaxSubdirectoriesPerDirectory = other.Filter.MaxSubdirectoriesPerDirectory
	}
	if len(other.Filter.SkipLargeDirectories) > 0 {
		c.Filter.SkipLargeDirectories = other.Filter.SkipLargeDirectories
	}
	if len(other.Filter.ExplicitInclusions) > 0 {
		c.Filter.ExplicitInclusions = other.Filter.ExplicitInclusions
	}
	if other.Filter.LogDecisions {
		c.Filter.LogDecisions = other.Filter.LogDecisions
	}

	if other.Performance.MaxWorkers != 0 {
		c.Performance.MaxWorkers = other.Performance.MaxWorkers
	}
	if other.Performance.ChunkSize != 0 {
		c.Performance.ChunkSize = other.Performance.ChunkSize
	}
	if other.Performance.CacheSize != 0 {
		c.Performance.CacheSize = other.Performance.CacheSize
	}
	if other.Performance.WatchDebounce != "" {
		c.Performance.WatchDebounce = other.Performance.WatchDebounce
	}

	if other.Memory.SoftLimitMB != 0 {
		c.Memory.SoftLimitMB = other.Memory.SoftLimitMB
	}
	if other.Memory.HardLimitMB != 0 {
		c.Memory.HardLimitMB = other.Memory.HardLimitMB
	}
	if other.Memory.GCThresholdMB != 0 {
		c.Memory.GCThresholdMB = other.Memory.GCThresholdMB
	}
	if other.Memory.SpillThresholdMB != 0 {
		c.Memory.SpillThresholdMB = other.Memory.SpillThresholdMB
	}
	if other.Memory.MaxLoadedFiles != 0 {
		c.Memory.MaxLoadedFiles = other.Memory.MaxLoadedFiles
	}
	if other.Memory.MaxCachedQueries != 0 {
		c.Memory.MaxCachedQueries = other.Memory.MaxCachedQueries
	}

	if other.Search.PreferredSearchTool != "" {
		c.Search.PreferredSearchTool = other.Search.PreferredSearchTool
	}
	if other.Search.DefaultPageSize != 0 {
		c.Search.DefaultPageSize = other.Search.DefaultPageSize
	}
	if other.Search.FTSBackend != "" {
		c.Search.FTSBackend = other.Search.FTSBackend
	}

	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies CODEINDEX_* environment variable overrides,
// the highest-precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CODEINDEX_PREFERRED_SEARCH_TOOL"); v != "" {
		c.Search.PreferredSearchTool = v
	}
	if v := os.Getenv("CODEINDEX_FTS_BACKEND"); v != "" {
		c.Search.FTSBackend = v
	}
	if v := os.Getenv("CODEINDEX_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("CODEINDEX_MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Performance.MaxWorkers = n
		}
	}
	if v := os.Getenv("CODEINDEX_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Performance.ChunkSize = n
		}
	}
	if v := os.Getenv("CODEINDEX_SOFT_LIMIT_MB"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Memory.SoftLimitMB = n
		}
	}
	if v := os.Getenv("CODEINDEX_HARD_LIMIT_MB"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Memory.HardLimitMB = n
		}
	}
}

// Validate normalizes zero-valued fields to defaults and rejects
// impossible combinations.
func (c *Config) Validate() error {
	if c.Filter.MaxFileSize < 0 {
		return fmt.Errorf("filter.max_file_size must be non-negative, got %d", c.Filter.MaxFileSize)
	}
	if c.Performance.MaxWorkers < 0 {
		return fmt.Errorf("performance.max_workers must be non-negative, got %d", c.Performance.MaxWorkers)
	}
	if c.Performance.MaxWorkers == 0 {
		c.Performance.MaxWorkers = runtime.NumCPU()
	}
	if c.Performance.ChunkSize <= 0 {
		c.Performance.ChunkSize = 100
	}
	if c.Memory.HardLimitMB != 0 && c.Memory.SoftLimitMB > c.Memory.HardLimitMB {
		return fmt.Errorf("memory.soft_limit_mb (%d) must not exceed memory.hard_limit_mb (%d)", c.Memory.SoftLimitMB, c.Memory.HardLimitMB)
	}
	if c.Search.DefaultPageSize < 0 {
		return fmt.Errorf("search.default_page_size must be non-negative, got %d", c.Search.DefaultPageSize)
	}

	validBackends := map[string]bool{"sqlite": true, "bleve": true}
	if c.Search.FTSBackend != "" && !validBackends[strings.ToLower(c.Search.FTSBackend)] {
		return fmt.Errorf("search.fts_backend must be 'sqlite' or 'bleve', got %s", c.Search.FTSBackend)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.ConfigErr("failed to marshal config", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.ConfigErr("failed to write config file", err)
	}
	return nil
}

// LoadUserConfig loads the global configuration file, if any.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
