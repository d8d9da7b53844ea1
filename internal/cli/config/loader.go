package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/portion/pkg/ratio"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// envPrefix marks the environment variables read into the config.
// A double underscore separates nested keys: PORTION_SERVE__ADDR -> serve.addr.
const envPrefix = "PORTION_"

var configNames = []string{"portion.yaml", "portion.yml"}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// findConfigUpward searches upward from startDir for a portion config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		for _, name := range configNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// findConfigFile finds the config file to use.
// Priority: explicit path > portion.yaml > portion.yml, searched upward from CWD.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return findConfigUpward(cwd)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"output":                 DefaultOutput,
		"style":                  DefaultStyle,
		"verbose":                false,
		"state_path":             DefaultStateFile,
		"parse.concurrency":      DefaultConcurrency,
		"serve.addr":             DefaultServeAddr,
		"serve.shutdown_timeout": DefaultShutdownTimeout.String(),
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				ratioHookFunc(),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Resolve the state path relative to the config file's directory
	if configFileUsed != "" && cfg.StatePath != "" && !filepath.IsAbs(cfg.StatePath) && !isDSN(cfg.StatePath) &&
		(flags == nil || !flags.Changed("state")) {
		cfg.StatePath = filepath.Join(filepath.Dir(configFileUsed), cfg.StatePath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// envKey transforms PORTION_PARSE__CONCURRENCY into parse.concurrency.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// flagKey maps a flag name onto its config key.
func flagKey(name string) string {
	switch name {
	case "state":
		// The CLI uses --state for brevity, the config key is state_path.
		return "state_path"
	case "concurrency":
		return "parse.concurrency"
	case "addr", "watch-dir":
		return "serve." + strings.ReplaceAll(name, "-", "_")
	}
	return strings.ReplaceAll(name, "-", "_")
}

// ratioHookFunc decodes YAML numbers and strings such as "1/3" into ratio.Ratio.
func ratioHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(ratio.Ratio{}) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return ratio.Parse(v)
		case int:
			return ratio.Int(int64(v)), nil
		case int64:
			return ratio.Int(v), nil
		case float64:
			return ratio.Parse(strconv.FormatFloat(v, 'f', -1, 64))
		}
		return data, nil
	}
}

// isDSN reports whether a state path is a database URL rather than a file.
func isDSN(path string) bool {
	return strings.HasPrefix(path, "postgres://") || strings.HasPrefix(path, "postgresql://")
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.New(slog.DiscardHandler)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
