package forecast

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	sectionMarker = "REVENUE FORECAST FOR "
	sectionEnd    = "---"
)

// yearLine matches "2025: 5.5%" and "2025 5.5%"; the percent sign is optional.
var yearLine = regexp.MustCompile(`^\s*(-?\d+)(?:\s*:\s*|\s+)([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)\s*%?`)

// ParseFile reads forecast sections from the file at path.
func ParseFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open forecast file: %w", err)
	}
	defer file.Close()

	records, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Parse reads forecast sections of the form
//
//	REVENUE FORECAST FOR AAPL (Base case)
//	2025: 5.5%
//	2026: 6.0%
//	----------
//
// A section closes at a "---" line, at the next section header, or at EOF. Sections
// without any year are dropped with a warning, as are years beyond MaxYears and
// entities beyond MaxEntities.
func Parse(r io.Reader) ([]Record, error) {
	var (
		records []Record
		current *Record
		dropped int
	)

	closeSection := func() {
		if current == nil {
			return
		}
		switch {
		case len(current.Points) == 0:
			log.Warn().Str("ticker", current.Ticker).Msg("Skipping forecast section without any years")
		case len(records) >= MaxEntities:
			dropped++
		default:
			records = append(records, *current)
		}
		current = nil
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		if idx := strings.Index(line, sectionMarker); idx >= 0 {
			closeSection()
			ticker := parseTicker(line[idx+len(sectionMarker):])
			if ticker == "" {
				log.Warn().Int("line", lineNo).Msg("Forecast header without ticker, ignoring section")
				continue
			}
			current = &Record{Ticker: ticker}
			continue
		}

		if current == nil {
			continue
		}

		if strings.Contains(line, sectionEnd) {
			closeSection()
			continue
		}

		m := yearLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		year, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		growth, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		if len(current.Points) >= MaxYears {
			log.Warn().Str("ticker", current.Ticker).Int("year", year).Int("limit", MaxYears).Msg("Forecast year limit reached, dropping year")
			continue
		}
		current.Points = append(current.Points, Point{Year: year, Growth: growth})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading forecasts: %w", err)
	}
	closeSection()

	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Int("limit", MaxEntities).Msg("Entity limit reached, ignoring remaining forecasts")
	}
	if len(records) == 0 {
		return nil, ErrNoForecasts
	}

	log.Debug().Int("count", len(records)).Msg("Parsed forecast records")
	return records, nil
}

// parseTicker extracts "AAPL" from "AAPL (Base case)".
func parseTicker(rest string) string {
	if end := strings.Index(rest, " ("); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
