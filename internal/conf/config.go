// Package conf handles the configuration file and settings of the application.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// Log rotation types
const (
	RotationDaily  = "daily"
	RotationWeekly = "weekly"
	RotationSize   = "size"
)

// MinDelay is the lowest allowed spacing between API requests. The
// iNaturalist API terms of use ask for no more than one request per
// second, so the configuration cannot go below this.
const MinDelay = time.Second

// MaxPageSize is the page size ceiling enforced by the observations endpoint.
const MaxPageSize = 200

// LogSettings contains settings for service log files
type LogSettings struct {
	Enabled   bool   `yaml:"enabled"`   // true to enable service log files
	Path      string `yaml:"path"`      // directory for log files
	Rotation  string `yaml:"rotation"`  // daily, weekly or size
	MaxSizeMB int    `yaml:"maxsizemb"` // max size in MB for size rotation
}

// INatSettings contains the iNaturalist API client settings
type INatSettings struct {
	BaseURL  string        `yaml:"baseurl"`  // API base URL
	Timeout  time.Duration `yaml:"timeout"`  // per-request timeout
	Delay    time.Duration `yaml:"delay"`    // spacing between requests
	PageSize int           `yaml:"pagesize"` // observations per page
	CacheTTL time.Duration `yaml:"cachettl"` // taxon lookup cache lifetime
}

// ConfusionSettings selects how confusion profiles are built
type ConfusionSettings struct {
	Source string `yaml:"source"` // histories or similar
	Mode   string `yaml:"mode"`   // full-chain or final-only
}

// OutputSettings controls where and how results are written
type OutputSettings struct {
	Path   string `yaml:"path"`   // output file path, empty for stdout
	Format string `yaml:"format"` // table, json or yaml
}

// Settings contains all application settings
type Settings struct {
	Debug bool `yaml:"debug"` // true to enable debug logging

	Log       LogSettings       `yaml:"log"`
	INat      INatSettings      `yaml:"inat"`
	Confusion ConfusionSettings `yaml:"confusion"`
	Output    OutputSettings    `yaml:"output"`
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("misid")
	viper.AutomaticEnv()

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file and writes it to the default config path
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetDefaultConfigPaths returns the paths where the config file is searched for,
// in priority order.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}

	return []string{
		filepath.Join(homeDir, ".config", "misid"),
		".",
	}, nil
}

// ValidateSettings checks the loaded settings for values the pipeline cannot run with.
func ValidateSettings(settings *Settings) error {
	if settings.INat.PageSize < 1 {
		return fmt.Errorf("inat.pagesize must be at least 1, got %d", settings.INat.PageSize)
	}
	if settings.INat.PageSize > MaxPageSize {
		// The API silently caps per_page, clamp instead of failing
		settings.INat.PageSize = MaxPageSize
	}
	if settings.INat.Delay < MinDelay {
		return fmt.Errorf("inat.delay %s is below the minimum %s required by the API terms of use", settings.INat.Delay, MinDelay)
	}
	if settings.INat.Timeout <= 0 {
		return fmt.Errorf("inat.timeout must be positive, got %s", settings.INat.Timeout)
	}

	switch settings.Confusion.Source {
	case "histories", "similar":
	default:
		return fmt.Errorf("confusion.source must be histories or similar, got %q", settings.Confusion.Source)
	}

	switch settings.Confusion.Mode {
	case "full-chain", "final-only":
	default:
		return fmt.Errorf("confusion.mode must be full-chain or final-only, got %q", settings.Confusion.Mode)
	}

	switch settings.Output.Format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("output.format must be table, json or yaml, got %q", settings.Output.Format)
	}

	return nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// SetTestSettings installs the given settings as the global instance.
// Only for use from tests.
func SetTestSettings(settings *Settings) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	once.Do(func() {})
	settingsInstance = settings
}
