package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
)

// TrialRow is one line of the trial export: the 1-based trial number and its final
// cumulative growth in percent.
type TrialRow struct {
	Simulation int     `csv:"Simulation"`
	FinalValue float64 `csv:"FinalValue"`
}

// ExportTrials writes outcomes in trial order as "Simulation,FinalValue" rows. Values keep
// full float64 precision so ReadTrials returns them unchanged.
func ExportTrials(w io.Writer, outcomes []float64) error {
	rows := make([]*TrialRow, len(outcomes))
	for i, v := range outcomes {
		rows[i] = &TrialRow{Simulation: i + 1, FinalValue: v}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write trial export: %w", err)
	}
	return nil
}

// ExportTrialsFile writes outcomes to <dir>/<ticker>_simulation_results.csv and returns the path.
func ExportTrialsFile(dir, ticker string, outcomes []float64) (string, error) {
	path := filepath.Join(dir, TrialsFileName(ticker))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("could not create CSV file %s: %w", path, err)
	}

	if err := ExportTrials(file, outcomes); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("could not close CSV file %s: %w", path, err)
	}
	return path, nil
}

// TrialsFileName returns the export file name for ticker.
func TrialsFileName(ticker string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, ticker)
	return safe + "_simulation_results.csv"
}

// ReadTrials reads an export produced by ExportTrials. Rows must be numbered 1..T in order.
func ReadTrials(r io.Reader) ([]float64, error) {
	var rows []*TrialRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to read trial export: %w", err)
	}

	outcomes := make([]float64, len(rows))
	for i, row := range rows {
		if row.Simulation != i+1 {
			return nil, fmt.Errorf("trial export out of order: row %d is simulation %d", i+1, row.Simulation)
		}
		outcomes[i] = row.FinalValue
	}
	return outcomes, nil
}

// ReadTrialsFile reads the export at path.
func ReadTrialsFile(path string) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trial export: %w", err)
	}
	defer file.Close()
	return ReadTrials(file)
}
