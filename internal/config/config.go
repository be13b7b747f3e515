// Package config loads the settings the demo daemon needs to stand up
// a Core and bridge it onto a FUSE mount. There is no filesystem state
// to persist here — the tree lives only in memory for the process
// lifetime — so unlike the teacher's state.Manager this has nothing to
// back up or version; see DESIGN.md for why that machinery was
// dropped rather than adapted.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"inmemfs/internal/logging"
)

var logger = logging.GetLogger().WithPrefix("config")

// Config carries the settings needed to construct a memtree.Core and
// mount it via the FUSE bridge.
type Config struct {
	// MountPoint is the host directory the bridge will mount onto.
	MountPoint string `json:"mount_point"`

	RootOwner uint64 `json:"root_owner"`
	RootGroup uint64 `json:"root_group"`
	RootMode  uint32 `json:"root_mode"`

	SymlinkChaseLimit int `json:"symlink_chase_limit"`
	MaxPathLength     int `json:"max_path_length"`

	LogLevel string `json:"log_level"`
}

func defaults() Config {
	return Config{
		RootOwner:         uint64(os.Getuid()),
		RootGroup:         uint64(os.Getgid()),
		RootMode:          0o755,
		SymlinkChaseLimit: 40,
		MaxPathLength:     4096,
		LogLevel:          "INFO",
	}
}

// Load reads a JSON config file at path, filling in any field left at
// its zero value with a sane default. A missing file is not an error:
// it just means "use the defaults."
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		logger.Debug("no config path given, using defaults")
		return &cfg, nil
	}

	absPath := path
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		absPath = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("config file %s not found, using defaults", absPath)
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", absPath, err)
	}

	logger.Debug("parsing config file %s (%d bytes)", absPath, len(data))
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", absPath, err)
	}

	if cfg.RootMode == 0 {
		cfg.RootMode = 0o755
	}
	if cfg.SymlinkChaseLimit == 0 {
		cfg.SymlinkChaseLimit = 40
	}
	if cfg.MaxPathLength == 0 {
		cfg.MaxPathLength = 4096
	}

	logger.Info("config loaded from %s", absPath)
	return &cfg, nil
}

// LevelFromString maps a config log-level name to a logging.LogLevel,
// defaulting to LevelInfo for an unrecognized or empty name.
func LevelFromString(name string) logging.LogLevel {
	switch name {
	case "ERROR":
		return logging.LevelError
	case "WARN":
		return logging.LevelWarn
	case "DEBUG":
		return logging.LevelDebug
	case "TRACE":
		return logging.LevelTrace
	default:
		return logging.LevelInfo
	}
}
