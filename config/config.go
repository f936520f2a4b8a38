package config

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

const (
	ENV_DEBUG                   = "DEBUG"
	ENV_DEBUG_SAVE_DECOMPRESSED = "DEBUG_SAVE_DECOMPRESSED"
	ENV_DEBUG_SAVE_BINARY       = "DEBUG_SAVE_BINARY"
	ENV_DEBUG_SAVE_JSON         = "DEBUG_SAVE_JSON"
	ENV_CONFIG                  = "SAV_PARSER_CONFIG"

	DEFAULT_CONFIG_FILE = "sav-parser.ini"
	DEFAULT_MAX_DEPTH   = 64
)

type Config struct {
	Debug            bool
	SaveDecompressed bool
	SaveBinary       bool
	SaveJSON         bool

	// where debug dumps are written
	OutputDir string

	MaxDepth    int
	StrictSizes bool
	// chunks inflated at once, 1 disables the parallel path
	Workers int
}

func Default() Config {
	return Config{
		OutputDir: ".",
		MaxDepth:  DEFAULT_MAX_DEPTH,
		Workers:   runtime.NumCPU(),
	}
}

// Load builds the configuration from defaults, then the ini file, then the
// environment. A missing default ini file is fine; a missing file named by
// SAV_PARSER_CONFIG is not.
func Load() (Config, error) {
	path, explicit := os.LookupEnv(ENV_CONFIG)
	if !explicit || path == "" {
		path = DEFAULT_CONFIG_FILE
		explicit = false
	}

	cfg := Default()

	_, err := os.Stat(path)
	switch {
	case err == nil:
		cfg, err = LoadFile(path)
		if err != nil {
			return cfg, err
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, errors.Wrapf(err, "failed to open config %s", path)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// LoadFile reads an ini file over the defaults, without the environment.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	file, err := ini.Load(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to load config %s", path)
	}

	debug := file.Section("debug")
	cfg.Debug = debug.Key("debug").MustBool(cfg.Debug)
	cfg.SaveDecompressed = debug.Key("save_decompressed").MustBool(cfg.SaveDecompressed)
	cfg.SaveBinary = debug.Key("save_binary").MustBool(cfg.SaveBinary)
	cfg.SaveJSON = debug.Key("save_json").MustBool(cfg.SaveJSON)

	decoder := file.Section("decoder")
	cfg.MaxDepth = decoder.Key("max_depth").MustInt(cfg.MaxDepth)
	cfg.StrictSizes = decoder.Key("strict_sizes").MustBool(cfg.StrictSizes)
	cfg.Workers = decoder.Key("workers").MustInt(cfg.Workers)

	cfg.OutputDir = file.Section("output").Key("dir").MustString(cfg.OutputDir)

	if cfg.MaxDepth <= 0 {
		return cfg, errors.Errorf("%s: max_depth must be positive, got %d", path, cfg.MaxDepth)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if os.Getenv(ENV_DEBUG) != "" {
		cfg.Debug = true
	}
	if os.Getenv(ENV_DEBUG_SAVE_DECOMPRESSED) != "" {
		cfg.SaveDecompressed = true
	}
	if os.Getenv(ENV_DEBUG_SAVE_BINARY) != "" {
		cfg.SaveBinary = true
	}
	if os.Getenv(ENV_DEBUG_SAVE_JSON) != "" {
		cfg.SaveJSON = true
	}
}
