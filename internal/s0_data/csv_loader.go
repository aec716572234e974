package s0_data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

// CSV layout under the data directory:
//
//	prices/<SYMBOL>.csv   date,close,volume
//	fundamentals.csv      symbol,date,metric,value   (optional)
//	earnings.csv          symbol,date                (optional)
const (
	pricesDir        = "prices"
	fundamentalsFile = "fundamentals.csv"
	earningsFile     = "earnings.csv"
)

// CSVLoader fills a MemoryStore from flat files
type CSVLoader struct {
	dataDir string
	logger  *logger.Logger
}

// NewCSVLoader creates a loader rooted at dataDir
func NewCSVLoader(dataDir string, log *logger.Logger) *CSVLoader {
	return &CSVLoader{dataDir: dataDir, logger: log.Component("s0_data")}
}

// Load reads every file into a new store
func (l *CSVLoader) Load() (*MemoryStore, error) {
	store := NewMemoryStore()

	files, err := filepath.Glob(filepath.Join(l.dataDir, pricesDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list price files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no price files under %s", filepath.Join(l.dataDir, pricesDir))
	}

	skipped := 0
	for _, path := range files {
		sec := contracts.Security(strings.TrimSuffix(filepath.Base(path), ".csv"))
		bars, bad, err := readPriceFile(path, sec)
		if err != nil {
			return nil, err
		}
		skipped += bad
		store.AddBars(bars...)
	}

	if err := l.readOptional(fundamentalsFile, 4, func(row []string) error {
		date, err := parseDate(row[1])
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return err
		}
		store.SetFundamental(contracts.Security(row[0]), contracts.Metric(row[2]), date, v)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := l.readOptional(earningsFile, 2, func(row []string) error {
		date, err := parseDate(row[1])
		if err != nil {
			return err
		}
		store.AddEarnings(contracts.Security(row[0]), date)
		return nil
	}); err != nil {
		return nil, err
	}

	l.logger.WithFields(map[string]interface{}{
		"dir":          l.dataDir,
		"securities":   len(files),
		"skipped_rows": skipped,
	}).Info("CSV market data loaded")

	return store, nil
}

// readPriceFile skips rows it cannot parse and reports how many
func readPriceFile(path string, sec contracts.Security) ([]contracts.Bar, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, 0, nil
	}

	cols := parseHeader(records[0])
	dateIdx, okDate := cols["date"]
	closeIdx, okClose := cols["close"]
	volIdx, okVol := cols["volume"]
	if !okDate || !okClose || !okVol {
		return nil, 0, fmt.Errorf("%s: header must contain date, close, volume", path)
	}

	bars := make([]contracts.Bar, 0, len(records)-1)
	bad := 0
	for _, row := range records[1:] {
		date, err1 := parseDate(row[dateIdx])
		closePx, err2 := strconv.ParseFloat(row[closeIdx], 64)
		vol, err3 := strconv.ParseFloat(row[volIdx], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			bad++
			continue
		}
		bars = append(bars, contracts.Bar{Security: sec, Date: date, Close: closePx, Volume: vol})
	}
	return bars, bad, nil
}

func (l *CSVLoader) readOptional(name string, minCols int, fn func(row []string) error) error {
	f, err := os.Open(filepath.Join(l.dataDir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	line := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		line++
		if line == 1 || len(row) < minCols {
			continue
		}
		if err := fn(row); err != nil {
			return fmt.Errorf("%s line %d: %w", name, line, err)
		}
	}
}

// parseHeader maps column names to indexes; an adjusted close wins over close
func parseHeader(header []string) map[string]int {
	cols := make(map[string]int)
	adjClose := -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "date", "timestamp":
			cols["date"] = i
		case "close":
			cols["close"] = i
		case "adj close", "adj_close", "adjclose":
			adjClose = i
		case "volume":
			cols["volume"] = i
		}
	}
	if adjClose >= 0 {
		cols["close"] = adjClose
	}
	return cols
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006/01/02", "01/02/2006", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}
