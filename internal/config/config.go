// This file defines the configuration structure for the application.
package config

import (
	// use Viper for loading the config.yml file.
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/vrsandeep/mango-catalog/internal/models"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port         int    `mapstructure:"port"`
	ScanInterval int    `mapstructure:"scan_interval"`
	DataDir      string `mapstructure:"data_dir"`
	Database     struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Libraries []LibraryConfig `mapstructure:"libraries"`
}

// ScanConfig tunes the scanner.
type ScanConfig struct {
	// ChunkSize is how many existing series are reconciled per transaction.
	ChunkSize int `mapstructure:"chunk_size"`
	// Workers bounds parsing and page counting; 0 means one per CPU.
	Workers int  `mapstructure:"workers"`
	Watch   bool `mapstructure:"watch"`
	// Exclude holds glob patterns, matched against paths relative to a
	// library root, that the walker never visits.
	Exclude []string `mapstructure:"exclude"`
}

// LibraryConfig declares one library. Libraries are matched to the catalog
// by name.
type LibraryConfig struct {
	Name    string   `mapstructure:"name"`
	Type    string   `mapstructure:"type"`
	Legacy  bool     `mapstructure:"legacy"`
	Folders []string `mapstructure:"folders"`
}

// Library converts the declaration into a catalog library.
func (l LibraryConfig) Library() (*models.Library, error) {
	t, err := models.ParseLibraryType(l.Type)
	if err != nil {
		return nil, err
	}
	return &models.Library{Name: l.Name, Type: t, Legacy: l.Legacy, Folders: l.Folders}, nil
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path falls back to
// config.yml in the current directory.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // name of config file (without extension)
		v.SetConfigType("yml")    // or "yaml"
		v.AddConfigPath(".")      // looking for config in the current directory
	}

	// --- Environment Variable Overrides ---
	// This tells Viper to look for environment variables with a "MANGO_" prefix.
	// e.g., MANGO_DATABASE_PATH will override the `database.path` key.
	v.SetEnvPrefix("MANGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	v.SetDefault("port", 8080)
	v.SetDefault("scan_interval", 60)
	v.SetDefault("data_dir", "./data")
	v.SetDefault("database.path", "./catalog.db")
	v.SetDefault("scan.chunk_size", 50)
	v.SetDefault("scan.workers", 0)
	v.SetDefault("scan.watch", true)
	v.SetDefault("scan.exclude", []string{})

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			// Config file was found but another error was produced,
			// or an explicitly requested file is missing.
			return nil, err
		}
		// Config file not found; ignore error and use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// Validate rejects configurations the scanner cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Scan.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("scan.chunk_size must be at least 1, got %d", c.Scan.ChunkSize))
	}
	if c.Scan.Workers < 0 {
		errs = append(errs, fmt.Errorf("scan.workers cannot be negative"))
	}
	if c.ScanInterval < 0 {
		errs = append(errs, fmt.Errorf("scan_interval cannot be negative"))
	}

	names := make(map[string]bool)
	for i, lib := range c.Libraries {
		if strings.TrimSpace(lib.Name) == "" {
			errs = append(errs, fmt.Errorf("libraries[%d]: name is required", i))
		} else if names[lib.Name] {
			errs = append(errs, fmt.Errorf("libraries[%d]: duplicate name %q", i, lib.Name))
		}
		names[lib.Name] = true
		if _, err := models.ParseLibraryType(lib.Type); err != nil {
			errs = append(errs, fmt.Errorf("libraries[%d]: %w", i, err))
		}
		if len(lib.Folders) == 0 {
			errs = append(errs, fmt.Errorf("libraries[%d]: at least one folder is required", i))
		}
	}
	return errors.Join(errs...)
}
