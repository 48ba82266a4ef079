package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/yumyai/phageatlas/internal/util"
	"github.com/yumyai/phageatlas/logger"
)

const (
	envData        = "PHAGEATLAS_DATA"
	envAddr        = "PHAGEATLAS_ADDR"
	envLogLevel    = "PHAGEATLAS_LOG_LEVEL"
	envMatrixCache = "PHAGEATLAS_MATRIX_CACHE"

	defaultData        = "./data"
	defaultAddr        = "0.0.0.0:8080"
	defaultMatrixCache = 16
)

type Config struct {
	DataDir     string
	Addr        string
	LogLevel    zapcore.Level
	MatrixCache int
}

// DBPath is the SQLite file inside the data directory.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "db", "atlas.db")
}

// Load reads .env (when present) and then the process environment. Unset
// variables fall back to defaults.
func Load(dotenvFiles ...string) (Config, error) {

	if err := godotenv.Load(dotenvFiles...); err != nil {
		logger.Warn("No .env found, using local environment")
	}

	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv without touching .env files.
func FromEnv(getenv func(string) string) (Config, error) {

	cfg := Config{
		DataDir:     getenv(envData),
		Addr:        getenv(envAddr),
		LogLevel:    zapcore.InfoLevel,
		MatrixCache: defaultMatrixCache,
	}

	if cfg.DataDir == "" {
		logger.Warn("No local environment (" + envData + "), using default value (" + defaultData + ")")
		cfg.DataDir = defaultData
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}

	if v := getenv(envLogLevel); v != "" {
		level, err := logger.ParseLevel(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", envLogLevel, err)
		}
		cfg.LogLevel = level
	}

	if v := getenv(envMatrixCache); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("%s: expected a non-negative integer, got %q", envMatrixCache, v)
		}
		cfg.MatrixCache = n
	}

	return cfg, nil
}

// PrepareDataDir makes sure the directory holding the database exists.
func (c Config) PrepareDataDir() error {
	return util.EnsureDir(filepath.Dir(c.DBPath()))
}
