package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName is the name of the rotating log file inside the log directory.
const LogFileName = "growth-mcs.log"

// Init initializes the global logger with dual sinks: os.Stderr and a rotating file.
// An unusable log directory is fatal.
func Init(verbose bool) {
	// Init runs before config.Load, so LOGS_FOLDER may only be known from the binary's .env.
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		_ = godotenv.Load(filepath.Join(exeDir, ".env"))
	}

	zerolog.SetGlobalLevel(Level(verbose))

	fileWriter, err := NewFileWriter(ResolveDir(exeDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log.Logger = New(os.Stderr, fileWriter)
}

// Level returns Debug when verbose, Info otherwise.
func Level(verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// ResolveDir returns LOGS_FOLDER, or a logs directory next to exeDir.
func ResolveDir(exeDir string) string {
	if dir := os.Getenv("LOGS_FOLDER"); dir != "" {
		return dir
	}
	if exeDir != "" {
		return filepath.Join(exeDir, "logs")
	}
	return "logs"
}

// NewFileWriter creates dir if needed, checks that it is writable and returns a rotating
// writer for LogFileName inside it.
func NewFileWriter(dir string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %q: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return nil, fmt.Errorf("log directory %q is not writable: %w", dir, err)
	}
	_ = os.Remove(testFile)

	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, LogFileName),
		MaxSize:    16, // megabytes
		MaxBackups: 32,
		MaxAge:     365, // days
		Compress:   true,
	}, nil
}

// New builds a timestamped logger writing human-readable lines to console and JSON lines
// to file. Colour is only used when console is a terminal.
func New(console io.Writer, file io.Writer) zerolog.Logger {
	isTerminal := false
	if f, ok := console.(*os.File); ok {
		isTerminal = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	consoleWriter := zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}

	multi := zerolog.MultiLevelWriter(consoleWriter, file)
	return zerolog.New(multi).
		With().
		Timestamp().
		Logger()
}
