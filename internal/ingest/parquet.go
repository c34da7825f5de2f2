package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/arborist/internal/domain/value"
)

// readParquet reads the flat top-level columns of a parquet file.
// Nested and repeated columns are ignored.
func readParquet(data []byte) (*table, error) {
	pf, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	// leaf column index -> table column index
	index := make(map[int]int)
	t := &table{}
	for i, path := range pf.Schema().Columns() {
		if len(path) != 1 {
			continue
		}
		index[i] = len(t.columns)
		t.columns = append(t.columns, path[0])
	}
	if len(t.columns) == 0 {
		return nil, errors.New("parquet file has no flat columns")
	}

	buf := make([]parquet.Row, 1000)
	for _, rg := range pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		for {
			n, readErr := rows.ReadRows(buf)
			for i := range n {
				t.rows = append(t.rows, convertRow(buf[i], index, len(t.columns)))
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return nil, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return t, nil
}

func convertRow(row parquet.Row, index map[int]int, width int) []value.Value {
	out := make([]value.Value, width)
	for _, v := range row {
		col, ok := index[v.Column()]
		if !ok {
			continue
		}
		out[col] = convertValue(v)
	}
	return out
}

func convertValue(v parquet.Value) value.Value {
	if v.IsNull() {
		return value.Null()
	}
	switch v.Kind() {
	case parquet.Boolean:
		if v.Boolean() {
			return value.Str("true")
		}
		return value.Str("false")
	case parquet.Int32:
		return value.Num(float64(v.Int32()))
	case parquet.Int64:
		return value.Num(float64(v.Int64()))
	case parquet.Float:
		return value.Num(float64(v.Float()))
	case parquet.Double:
		return value.Num(v.Double())
	default:
		return value.Text(v.String())
	}
}
