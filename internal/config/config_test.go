package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/joho/godotenv"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"DATA_PATH", "LOGS_FOLDER", "MCS_INPUT_FILE", "MCS_OUTPUT_FILE", "MCS_SIMULATIONS",
		"MCS_VOLATILITY_FACTOR", "MCS_GRAPH_WIDTH", "MCS_GRAPH_HEIGHT", "MCS_THREADS", "MCS_SEED",
		"MCS_EXPORT_CSV", "MCS_CSV_DIR", "ENABLE_MERMAID_CHARTS",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv("/opt/growth")

	if cfg.DataPath != "/opt/growth" {
		t.Errorf("Expected data path to fall back to exe dir, got %s", cfg.DataPath)
	}
	if cfg.LogDir != filepath.Join("/opt/growth", "logs") {
		t.Errorf("Expected log dir under data path, got %s", cfg.LogDir)
	}
	if cfg.InputFile != DefaultInputFile || cfg.OutputFile != DefaultOutputFile {
		t.Errorf("Expected default files, got %s / %s", cfg.InputFile, cfg.OutputFile)
	}
	if cfg.Simulation.Trials != 10000 || cfg.Simulation.VolatilityFactor != 1.5 {
		t.Errorf("Expected default trials and volatility, got %d / %v", cfg.Simulation.Trials, cfg.Simulation.VolatilityFactor)
	}
	if cfg.Simulation.HistogramWidth != 60 || cfg.Simulation.HistogramHeight != 20 {
		t.Errorf("Expected default graph size, got %dx%d", cfg.Simulation.HistogramWidth, cfg.Simulation.HistogramHeight)
	}
	if cfg.Simulation.Workers != runtime.NumCPU() {
		t.Errorf("Expected one worker per CPU, got %d", cfg.Simulation.Workers)
	}
	if cfg.Simulation.Seed != nil {
		t.Errorf("Expected no seed, got %d", *cfg.Simulation.Seed)
	}
	if cfg.ExportCSV || cfg.EnableMermaidCharts {
		t.Errorf("Expected CSV export and charts to be off by default")
	}

	if got := FromEnv("").DataPath; got != "." {
		t.Errorf("Expected data path '.', got %s", got)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATA_PATH", "/data")
	t.Setenv("LOGS_FOLDER", "/var/log/growth")
	t.Setenv("MCS_INPUT_FILE", "in.txt")
	t.Setenv("MCS_OUTPUT_FILE", "out.txt")
	t.Setenv("MCS_SIMULATIONS", "500")
	t.Setenv("MCS_VOLATILITY_FACTOR", "2.25")
	t.Setenv("MCS_GRAPH_WIDTH", "40")
	t.Setenv("MCS_GRAPH_HEIGHT", "10")
	t.Setenv("MCS_THREADS", "3")
	t.Setenv("MCS_SEED", "42")
	t.Setenv("MCS_EXPORT_CSV", "true")
	t.Setenv("MCS_CSV_DIR", "/tmp/csv")
	t.Setenv("ENABLE_MERMAID_CHARTS", "1")

	cfg := FromEnv("/ignored")

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"DataPath", cfg.DataPath, "/data"},
		{"LogDir", cfg.LogDir, "/var/log/growth"},
		{"InputFile", cfg.InputFile, "in.txt"},
		{"OutputFile", cfg.OutputFile, "out.txt"},
		{"Trials", cfg.Simulation.Trials, 500},
		{"VolatilityFactor", cfg.Simulation.VolatilityFactor, 2.25},
		{"HistogramWidth", cfg.Simulation.HistogramWidth, 40},
		{"HistogramHeight", cfg.Simulation.HistogramHeight, 10},
		{"Workers", cfg.Simulation.Workers, 3},
		{"ExportCSV", cfg.ExportCSV, true},
		{"CSVDir", cfg.CSVDir, "/tmp/csv"},
		{"EnableMermaidCharts", cfg.EnableMermaidCharts, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, tt.got)
			}
		})
	}

	if cfg.Simulation.Seed == nil || *cfg.Simulation.Seed != 42 {
		t.Errorf("Expected seed 42, got %v", cfg.Simulation.Seed)
	}
}

func TestFromEnv_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("MCS_SIMULATIONS", "lots")
	t.Setenv("MCS_VOLATILITY_FACTOR", "high")
	t.Setenv("MCS_SEED", "0x2a")

	cfg := FromEnv("")
	if cfg.Simulation.Trials != 10000 {
		t.Errorf("Expected default trials, got %d", cfg.Simulation.Trials)
	}
	if cfg.Simulation.VolatilityFactor != 1.5 {
		t.Errorf("Expected default volatility, got %v", cfg.Simulation.VolatilityFactor)
	}
	if cfg.Simulation.Seed != nil {
		t.Errorf("Expected unparsable seed to be ignored")
	}
}

func TestGodotenvQuoting(t *testing.T) {
	content := `MCS_INPUT_FILE='forecasts "q1".txt'`
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}

	expected := `forecasts "q1".txt`
	if env["MCS_INPUT_FILE"] != expected {
		t.Errorf("Expected %s, got %s", expected, env["MCS_INPUT_FILE"])
	}
}
