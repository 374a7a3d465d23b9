// Package storage reads network datasets from disk and keeps per-house
// metric rows in SQLite.
package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/feedergraph/feedergraph/internal/energy"
	"github.com/feedergraph/feedergraph/internal/network"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ErrUnsupportedFormat is returned for dataset files that are neither .json
// nor .jsonl.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// ReadDataset reads one raw dataset. A .json file holds a single array of
// elements; a .jsonl (or .ndjson) file holds one element per line.
func ReadDataset(path string) ([]network.Element, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return readJSONArray(path)
	case ".jsonl", ".ndjson":
		return readJSONLElements(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ReadDatasets reads every path in order.
func ReadDatasets(paths []string) ([][]network.Element, error) {
	datasets := make([][]network.Element, 0, len(paths))
	for _, p := range paths {
		ds, err := ReadDataset(p)
		if err != nil {
			return nil, fmt.Errorf("reading dataset %s: %w", p, err)
		}
		datasets = append(datasets, ds)
	}
	return datasets, nil
}

func readJSONArray(path string) ([]network.Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset file: %w", err)
	}
	defer f.Close()

	var elems []network.Element
	if err := json.NewDecoder(f).Decode(&elems); err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}
	return elems, nil
}

func readJSONLElements(path string) ([]network.Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset file: %w", err)
	}
	defer f.Close()

	var elems []network.Element
	err = scanJSONL(f, func(line []byte) error {
		var e network.Element
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		elems = append(elems, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return elems, nil
}

// scanJSONL calls fn for every non-empty line of r.
func scanJSONL(r io.Reader, fn func(line []byte) error) error {
	scanner := bufio.NewScanner(r)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	return nil
}

// ReadMetricRows reads compact wide-format metric rows: one object per line
// with house_id, metric and one key per column of period (month_01..month_12
// or slot_00_00..slot_23_30). Null and unknown columns are ignored.
func ReadMetricRows(path string, period energy.Period) ([]energy.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening metrics file: %w", err)
	}
	defer f.Close()

	columns := energy.Columns(period)
	var rows []energy.Row
	err = scanJSONL(f, func(line []byte) error {
		row, err := parseMetricRow(line, columns)
		if err != nil {
			return err
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func parseMetricRow(line []byte, columns []string) (energy.Row, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return energy.Row{}, err
	}

	houseID, err := parseHouseID(raw["house_id"])
	if err != nil {
		return energy.Row{}, err
	}

	var metric string
	if err := json.Unmarshal(raw["metric"], &metric); err != nil || metric == "" {
		return energy.Row{}, errors.New("metric is required")
	}

	row := energy.Row{HouseID: houseID, Metric: metric, Values: make(map[string]float64)}
	for _, col := range columns {
		v, ok := raw[col]
		if !ok || string(v) == "null" {
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return energy.Row{}, fmt.Errorf("column %s: %w", col, err)
		}
		row.Values[col] = f
	}
	return row, nil
}

// parseHouseID accepts a JSON integer or a string holding one.
func parseHouseID(v json.RawMessage) (int, error) {
	if len(v) == 0 || string(v) == "null" {
		return 0, errors.New("house_id is required")
	}
	var n json.Number
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return 0, err
		}
		n = json.Number(strings.TrimSpace(s))
	} else if err := json.Unmarshal(v, &n); err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, fmt.Errorf("house_id %q is not an integer", n.String())
	}
	return id, nil
}
