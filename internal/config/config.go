// Package config loads the settings of the labeledtext commands with viper: defaults, an optional
// config file and LABELEDTEXT_* environment variables, in increasing order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gomlx/labeledtext/dataset"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix of the environment variables overriding configuration values. E.g.: the key "dataset.maxLength"
// is overridden by LABELEDTEXT_DATASET_MAXLENGTH.
const EnvPrefix = "LABELEDTEXT"

// ConfigName is the base name of the config file searched when no explicit path is given.
const ConfigName = "labeledtext"

// Config stores all configuration of the commands.
type Config struct {
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Dataset   DatasetConfig   `mapstructure:"dataset"`
}

// TokenizerConfig selects the pretrained tokenizer on the HuggingFace Hub.
type TokenizerConfig struct {
	Repo      string `mapstructure:"repo"`
	Revision  string `mapstructure:"revision"`
	CacheDir  string `mapstructure:"cacheDir"`
	AuthToken string `mapstructure:"authToken"`
}

// DatasetConfig configures the encoding of the corpus.
type DatasetConfig struct {
	MaxLength   int  `mapstructure:"maxLength"`
	Parallelism int  `mapstructure:"parallelism"`
	ProgressBar bool `mapstructure:"progressBar"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tokenizer.repo", dataset.DefaultTokenizerRepo)
	v.SetDefault("tokenizer.revision", "main")
	v.SetDefault("tokenizer.cacheDir", "")
	v.SetDefault("tokenizer.authToken", "")
	v.SetDefault("dataset.maxLength", dataset.DefaultMaxLength)
	v.SetDefault("dataset.parallelism", 1)
	v.SetDefault("dataset.progressBar", false)
}

// Load reads the configuration.
//
// If configPath is given, the file must exist; its format is taken from the extension (yaml, toml, json...).
// Otherwise a "labeledtext.<ext>" file is searched in the current directory and in the user config directory,
// and it is fine if none is found.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %q", configPath)
		}
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
		if userDir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(userDir, ConfigName))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrapf(err, "failed to read config file")
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode configuration")
	}
	if cfg.Dataset.MaxLength < 0 {
		return nil, errors.Wrapf(dataset.ErrInvalidMaxLength, "dataset.maxLength must be >= 0, got %d", cfg.Dataset.MaxLength)
	}
	return cfg, nil
}
