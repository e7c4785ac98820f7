package config

import (
	"os"
	"path/filepath"
	"strconv"

	"growth-mcs/internal/simulation"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DefaultInputFile  = "Forecasts.txt"
	DefaultOutputFile = "Monte_Carlo_Results.txt"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Simulation          simulation.Config
	InputFile           string
	OutputFile          string
	ExportCSV           bool
	CSVDir              string
	DataPath            string
	LogDir              string
	EnableMermaidCharts bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	return FromEnv(exeDir), nil
}

// FromEnv builds the configuration from the process environment only. exeDir is the
// fallback data path when DATA_PATH is unset.
func FromEnv(exeDir string) *AppConfig {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))

	sim := simulation.DefaultConfig()
	sim.Trials = getEnvInt("MCS_SIMULATIONS", sim.Trials)
	sim.VolatilityFactor = getEnvFloat("MCS_VOLATILITY_FACTOR", sim.VolatilityFactor)
	sim.HistogramWidth = getEnvInt("MCS_GRAPH_WIDTH", sim.HistogramWidth)
	sim.HistogramHeight = getEnvInt("MCS_GRAPH_HEIGHT", sim.HistogramHeight)
	sim.Workers = getEnvInt("MCS_THREADS", sim.Workers)
	if _, ok := os.LookupEnv("MCS_SEED"); ok {
		if seed, err := strconv.ParseInt(os.Getenv("MCS_SEED"), 10, 64); err == nil {
			sim.Seed = &seed
		} else {
			log.Warn().Str("key", "MCS_SEED").Str("value", os.Getenv("MCS_SEED")).Msg("Ignoring unparsable seed")
		}
	}

	return &AppConfig{
		Simulation:          sim,
		InputFile:           getEnv("MCS_INPUT_FILE", DefaultInputFile),
		OutputFile:          getEnv("MCS_OUTPUT_FILE", DefaultOutputFile),
		ExportCSV:           getEnvBool("MCS_EXPORT_CSV", false),
		CSVDir:              getEnv("MCS_CSV_DIR", "."),
		DataPath:            dataPath,
		LogDir:              logDir,
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Int("default", fallback).Msg("Invalid integer setting, using default")
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Float64("default", fallback).Msg("Invalid number setting, using default")
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
