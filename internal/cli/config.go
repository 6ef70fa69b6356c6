// Config loading for the esyr CLI.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/esyr/internal/paths"
	"github.com/mesh-intelligence/esyr/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "ESYR"

	cfgKeyEsyPath      = "esy_path"
	cfgKeyCacheBackend = "cache_backend"
	cfgKeyDebug        = "debug"
)

// defaultConfig is written to config.yaml on first run.
var defaultConfig = types.Config{
	EsyPath:      types.DefaultEsyPath,
	CacheBackend: types.BackendJSON,
}

func resolveHomeDir(flag string) (string, error) {
	return paths.ResolveHomeDir(flag)
}

// loadConfig reads config.yaml from the esyr home directory, writing a
// default one first if none exists. ESYR_* environment variables override
// the file. A home directory that cannot be created is not fatal: the
// defaults apply and the fetch cache reports its own failures.
func loadConfig(homeDir string) (types.Config, error) {
	if err := ensureDefaultConfigFile(homeDir); err != nil {
		fmt.Fprintf(os.Stderr, "esyr WARN unable to write default config: %s\n", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyEsyPath, defaultConfig.EsyPath)
	v.SetDefault(cfgKeyCacheBackend, defaultConfig.CacheBackend)
	v.SetDefault(cfgKeyDebug, false)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(homeDir)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := types.Config{
		EsyPath:      v.GetString(cfgKeyEsyPath),
		CacheBackend: v.GetString(cfgKeyCacheBackend),
		HomeDir:      homeDir,
		Debug:        v.GetBool(cfgKeyDebug),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config %s: %w", filepath.Join(homeDir, configFileExt), err)
	}
	return cfg, nil
}

// ensureDefaultConfigFile writes config.yaml with default values when the
// file does not exist. An existing file is left alone.
func ensureDefaultConfigFile(homeDir string) error {
	path := filepath.Join(homeDir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(&defaultConfig)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte("# esyr configuration\n"), data...), 0o644)
}

// newLogger builds the console logger used for warnings and debug output.
func newLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.TimeKey = ""
	config.EncoderConfig.CallerKey = ""
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.DisableStacktrace = true
	config.Sampling = nil
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	log, err := config.Build()
	if err != nil {
		return nil, err
	}
	return log.Named("esyr"), nil
}
