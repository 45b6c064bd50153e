package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/pins/internal/board"
	"github.com/mesh-intelligence/pins/internal/paths"
	"github.com/mesh-intelligence/pins/pkg/pins"
	"github.com/mesh-intelligence/pins/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "PINS"

	cfgKeyBackend         = "backend"
	cfgKeyPath            = "path"
	cfgKeyBucket          = "bucket"
	cfgKeyRegion          = "region"
	cfgKeyEndpoint        = "endpoint"
	cfgKeyProject         = "project"
	cfgKeyAllowPickleRead = "allow_pickle_read"

	defaultBackend = types.BackendFile
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# pins configuration

# Board backend: file, memory, s3, gcs
backend: file

# Board directory for the file backend, or key prefix inside the bucket
# path:

# Object store settings
# bucket:
# region:
# endpoint:
# project:

# Read formats that are unsafe to decode from untrusted storage (gob).
# Also set by PINS_ALLOW_PICKLE_READ.
allow_pickle_read: false
`

// loadConfig reads config.yaml from configDir using Viper, creating the
// directory and a default file on first run. Every key except path may also
// come from a PINS_ environment variable.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyAllowPickleRead, false)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	// path is resolved by internal/paths so that config.yaml wins over env.
	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{cfgKeyBackend, cfgKeyBucket, cfgKeyRegion, cfgKeyEndpoint, cfgKeyProject, cfgKeyAllowPickleRead} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// resolveConfig merges flags, config.yaml and environment into a board Config.
func (a *app) resolveConfig() (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return types.Config{}, err
	}

	cfg := types.Config{
		Backend:           v.GetString(cfgKeyBackend),
		Root:              v.GetString(cfgKeyPath),
		Bucket:            v.GetString(cfgKeyBucket),
		Region:            v.GetString(cfgKeyRegion),
		Endpoint:          v.GetString(cfgKeyEndpoint),
		Project:           v.GetString(cfgKeyProject),
		AllowInsecureRead: v.GetBool(cfgKeyAllowPickleRead),
	}
	if a.flags.backend != "" {
		cfg.Backend = a.flags.backend
	}
	if a.flags.bucket != "" {
		cfg.Bucket = a.flags.bucket
	}

	switch cfg.Backend {
	case types.BackendFile:
		cfg.Root, err = paths.ResolveBoardDir(a.flags.boardPath, cfg.Root)
		if err != nil {
			return types.Config{}, fmt.Errorf("resolve board dir: %w", err)
		}
		cfg.Root = filepath.ToSlash(cfg.Root)
	default:
		if a.flags.boardPath != "" {
			cfg.Root = a.flags.boardPath
		}
	}
	return cfg, nil
}

// openBoard resolves the configuration and opens the board. The caller must
// defer Close.
func (a *app) openBoard(ctx context.Context) (types.Board, error) {
	cfg, err := a.resolveConfig()
	if err != nil {
		return nil, err
	}
	a.logger.Debug("opening board", "backend", cfg.Backend, "path", cfg.Root)
	return pins.Open(ctx, cfg, board.WithLogger(a.logger), board.WithMetrics(a.metrics))
}
