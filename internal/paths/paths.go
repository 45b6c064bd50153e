// Package paths resolves the configuration directory and the default local
// board directory.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appDir is the directory name used under the platform config and data roots.
const appDir = "pins"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "PINS_CONFIG_DIR"
	EnvBoardDir  = "PINS_PATH"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/pins (fallback ~/.config/pins)
// macOS:   ~/Library/Application Support/pins
// Windows: %APPDATA%/pins
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appDir), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appDir), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDir), nil
	}
}

// DefaultBoardDir returns the platform-specific default local board.
//
// Linux:   $XDG_DATA_HOME/pins/board (fallback ~/.local/share/pins/board)
// macOS:   ~/Library/Application Support/pins/board
// Windows: %APPDATA%/pins/board
func DefaultBoardDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appDir, "board"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", appDir, "board"), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDir, "board"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > PINS_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveBoardDir returns the local board directory following the precedence
// chain: flag > configYAMLValue > PINS_PATH env > DefaultBoardDir().
func ResolveBoardDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvBoardDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultBoardDir()
}
