package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/theapemachine/bucketreaper/logger"
)

const (
	// DefaultRegion is where account-wide calls (bucket listing, location
	// lookups) are sent, and the region S3 reports as an empty constraint.
	DefaultRegion = "us-east-1"
	// MaxBatchSize is the S3 limit on keys per DeleteObjects request.
	MaxBatchSize = 1000

	envPrefix  = "REAPER"
	configName = "bucketreaper"
)

// Keys shared by viper, the environment (REAPER_<KEY>) and the CLI flags.
const (
	KeyRegion    = "region"
	KeyProfile   = "profile"
	KeyEndpoint  = "endpoint"
	KeyPathStyle = "path-style"
	KeyPrefix    = "prefix"
	KeyDryRun    = "dry-run"
	KeyBatchSize = "batch-size"
	KeyLogLevel  = "log-level"
	KeyJournal   = "journal-dir"
)

var keys = []string{
	KeyRegion, KeyProfile, KeyEndpoint, KeyPathStyle,
	KeyPrefix, KeyDryRun, KeyBatchSize, KeyLogLevel, KeyJournal,
}

/*
Config holds the reaper settings: where to send requests, which buckets to
touch, how large delete batches may be, and how loud to log.
*/
type Config struct {
	// AWS settings
	Region    string
	Profile   string
	Endpoint  string
	PathStyle bool

	// Run settings
	Prefix    string
	DryRun    bool
	BatchSize int

	// Logging settings
	LogLevel     log.Level
	LogLevelName string

	// JournalDir is where run records are kept; empty disables the journal.
	JournalDir string

	v *viper.Viper
}

/*
New creates a configuration populated from defaults and REAPER_* environment
variables. Flags and config files are layered on top by Load.
*/
func New() *Config {
	v := viper.New()
	v.SetDefault(KeyRegion, DefaultRegion)
	v.SetDefault(KeyProfile, "")
	v.SetDefault(KeyEndpoint, "")
	v.SetDefault(KeyPathStyle, false)
	v.SetDefault(KeyPrefix, "")
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyBatchSize, MaxBatchSize)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyJournal, "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	c := &Config{v: v}
	c.populate()

	return c
}

/*
Load binds the known keys to flags, reads the config file (an explicit path,
or bucketreaper.yaml in $HOME/.bucketreaper or the working directory) and
refreshes the fields. A missing file is only an error when it was asked for.
Precedence is flag, environment, config file, default.
*/
func (c *Config) Load(path string, flags *pflag.FlagSet) error {
	if flags != nil {
		for _, key := range keys {
			if f := flags.Lookup(key); f != nil {
				if err := c.v.BindPFlag(key, f); err != nil {
					return fmt.Errorf("failed to bind flag %s: %w", key, err)
				}
			}
		}
	}

	if path != "" {
		c.v.SetConfigFile(path)
	} else {
		c.v.SetConfigName(configName)
		if home, err := os.UserHomeDir(); err == nil {
			c.v.AddConfigPath(filepath.Join(home, "."+configName))
		}
		c.v.AddConfigPath(".")
	}

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		logger.Debug("Using config file", "path", c.v.ConfigFileUsed())
	}

	c.populate()
	return nil
}

func (c *Config) populate() {
	c.Region = c.v.GetString(KeyRegion)
	c.Profile = c.v.GetString(KeyProfile)
	c.Endpoint = c.v.GetString(KeyEndpoint)
	c.PathStyle = c.v.GetBool(KeyPathStyle)
	c.Prefix = c.v.GetString(KeyPrefix)
	c.DryRun = c.v.GetBool(KeyDryRun)
	c.BatchSize = c.v.GetInt(KeyBatchSize)
	c.LogLevelName = strings.ToLower(c.v.GetString(KeyLogLevel))
	c.JournalDir = c.v.GetString(KeyJournal)

	if level, err := logger.ParseLevel(c.LogLevelName); err == nil {
		c.LogLevel = level
	} else {
		c.LogLevel = log.InfoLevel
	}
}

/*
Validate checks that the configuration can drive a run.
*/
func (c *Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("region is required (--region or REAPER_REGION)")
	}

	if c.BatchSize < 1 || c.BatchSize > MaxBatchSize {
		return fmt.Errorf("invalid batch size: %d (must be between 1 and %d)", c.BatchSize, MaxBatchSize)
	}

	if c.LogLevelName != "" {
		if _, err := logger.ParseLevel(c.LogLevelName); err != nil {
			return fmt.Errorf("invalid log level: %s (valid values: debug, info, warn, error)", c.LogLevelName)
		}
	}

	if c.PathStyle && c.Endpoint == "" {
		logger.Warn("Path-style addressing requested without a custom endpoint")
	}

	return nil
}

/*
ApplyLogging configures the logger based on the current configuration.
*/
func (c *Config) ApplyLogging() {
	logger.SetLevel(c.LogLevel)
	logger.Debug("Logging configured",
		"level", c.LogLevel.String(),
		"region", c.Region,
		"dry_run", c.DryRun)
}
