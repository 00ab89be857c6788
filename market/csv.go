package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// KlineHeader is the column layout written by the download tooling and
// expected by LoadCSV. Extra trailing columns are ignored.
var KlineHeader = []string{"Open time", "Open", "High", "Low", "Close", "Volume", "Close time"}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// LoadCSV reads a kline CSV file into a BarSeries. Columns are located
// by header name; timestamps may be millisecond epochs or one of the
// common datetime layouts. Rows that fail to parse are counted in
// BadRows and skipped rather than aborting the load.
func LoadCSV(path, symbol string) (*BarSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("market: open %s: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(f, symbol)
}

// ReadCSV parses kline CSV rows from r. See LoadCSV.
func ReadCSV(r io.Reader, symbol string) (*BarSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("market: read csv header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	idx := func(name string) (int, error) {
		i, ok := col[name]
		if !ok {
			return 0, fmt.Errorf("market: csv missing column %q", name)
		}
		return i, nil
	}

	timeIdx, err := idx("open time")
	if err != nil {
		return nil, err
	}
	var priceIdx [5]int
	for i, name := range []string{"open", "high", "low", "close", "volume"} {
		if priceIdx[i], err = idx(name); err != nil {
			return nil, err
		}
	}

	var bars []Bar
	bad := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			bad++
			continue
		}

		ts, ok := parseTime(rec[timeIdx])
		if !ok {
			bad++
			continue
		}

		var vals [5]float64
		ok = true
		for i, ci := range priceIdx {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[ci]), 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			bad++
			continue
		}

		bars = append(bars, Bar{
			Time:   ts,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}

	series, err := NewBarSeries(symbol, bars)
	if err != nil {
		return nil, err
	}
	series.BadRows = bad
	return series, nil
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		// Binance publishes open times as millisecond epochs. Newer
		// archives use microseconds; both are well outside the range
		// of plausible second epochs, so disambiguate by magnitude.
		if ms > 1e14 {
			return time.UnixMicro(ms).UTC(), true
		}
		return time.UnixMilli(ms).UTC(), true
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
