package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/kailas-cloud/arborist/internal/domain/value"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// table is a raw column-oriented view of a source before cleaning.
type table struct {
	columns []string
	rows    [][]value.Value
}

// readCSV parses a CSV document with a header row.
// Input that is not valid UTF-8 is decoded as Latin-1.
func readCSV(data []byte) (*table, error) {
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode latin-1: %w", err)
		}
		data = decoded
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty csv: no header row")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := make([]string, len(header))
	copy(columns, header)

	t := &table{columns: columns}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(rec) > len(columns) {
			return nil, fmt.Errorf("csv line %d: %d fields, header has %d", line, len(rec), len(columns))
		}
		row := make([]value.Value, len(columns))
		for i, raw := range rec {
			row[i] = value.Text(raw)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}
