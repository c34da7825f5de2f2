package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/arborist/internal/domain"
	"github.com/kailas-cloud/arborist/internal/domain/value"
)

const treesCSV = `tree_id,status,spc_common,boroname,tree_dbh,latitude,longitude
1,Good,"OAK, PIN",Manhattan,12,40.75,-73.99
2,Poor,"MAPLE, NORWAY",Brooklyn,abc,40.65,-73.95
3,Good,honeylocust,Queens,5,0,0
4,Dead,,Bronx,7,,-73.9
5,Good,LONDON PLANETREE,Staten Island,20,95,-74.1
6,Good,"PEAR, CALLERY",Bronx,9,40.85,-73.88
`

func prepare(t *testing.T, location string, opts Options) (*Preparer, error) {
	t.Helper()
	opener, err := NewOpener(StorageConfig{})
	if err != nil {
		t.Fatalf("NewOpener: %v", err)
	}
	opts.Location = location
	if opts.NumericFields == nil {
		opts.NumericFields = []string{"tree_dbh"}
	}
	p := NewPreparer(opener, opts, zap.NewNop())
	p.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return p, nil
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoad_CSV(t *testing.T) {
	path := writeFile(t, "trees.csv", []byte(treesCSV))
	p, _ := prepare(t, path, Options{})

	ds, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// rows 3 (null island), 4 (missing latitude), 5 (out of range) are dropped
	if ds.Len() != 3 || ds.Info().Dropped != 3 {
		t.Fatalf("expected 3 records and 3 dropped, got %d/%d", ds.Len(), ds.Info().Dropped)
	}
	if ds.Info().Source != path || ds.Info().LoadedAt.IsZero() {
		t.Errorf("unexpected info %+v", ds.Info())
	}
	if !ds.IsNumeric("tree_dbh") {
		t.Error("tree_dbh should be coerced to numeric")
	}

	second := ds.Records()[1]
	if v, _ := second.Get("tree_dbh"); !v.IsNull() {
		t.Errorf("unparsable tree_dbh should be missing, got %v", v.Interface())
	}
	if v, _ := second.Get("spc_common"); v.String() != "MAPLE, NORWAY" {
		t.Errorf("spc_common = %q", v.String())
	}
	pt, ok := ds.Records()[0].Location()
	if !ok || pt.Lon() != -73.99 || pt.Lat() != 40.75 {
		t.Errorf("unexpected location %v", pt)
	}
}

func TestLoad_KeepUnlocated(t *testing.T) {
	path := writeFile(t, "trees.csv", []byte(treesCSV))
	p, _ := prepare(t, path, Options{KeepUnlocated: true})

	ds, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 6 || ds.Located() != 3 || ds.Info().Dropped != 0 {
		t.Errorf("expected 6 records with 3 located, got %d/%d", ds.Len(), ds.Located())
	}
}

func TestLoad_Latin1Fallback(t *testing.T) {
	// "Café" with é as the single Latin-1 byte 0xE9.
	data := []byte("tree_id,address,latitude,longitude\n1,Caf\xe9 St,40.7,-73.9\n")
	path := writeFile(t, "trees.csv", data)
	p, _ := prepare(t, path, Options{})

	ds, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _ := ds.Records()[0].Get("address")
	if v.String() != "Café St" {
		t.Errorf("address = %q, want %q", v.String(), "Café St")
	}
}

func TestLoad_UTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("tree_id,latitude,longitude\n1,40.7,-73.9\n")...)
	path := writeFile(t, "trees.csv", data)
	p, _ := prepare(t, path, Options{})

	ds, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ds.HasColumn("tree_id") {
		t.Errorf("expected tree_id column, got %v", ds.Columns())
	}
}

func TestLoad_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(treesCSV)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	path := writeFile(t, "trees.csv.gz", buf.Bytes())
	p, _ := prepare(t, path, Options{})

	ds, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 3 {
		t.Errorf("expected 3 records, got %d", ds.Len())
	}
}

func TestLoad_Zstd(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	compressed := enc.EncodeAll([]byte(treesCSV), nil)
	_ = enc.Close()
	path := writeFile(t, "trees.csv.zst", compressed)
	p, _ := prepare(t, path, Options{})

	ds, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 3 {
		t.Errorf("expected 3 records, got %d", ds.Len())
	}
}

type parquetTree struct {
	TreeID    int64   `parquet:"tree_id"`
	Status    string  `parquet:"status"`
	TreeDBH   float64 `parquet:"tree_dbh"`
	Latitude  float64 `parquet:"latitude"`
	Longitude float64 `parquet:"longitude"`
}

func TestLoad_Parquet(t *testing.T) {
	var buf bytes.Buffer
	rows := []parquetTree{
		{TreeID: 1, Status: "Good", TreeDBH: 12, Latitude: 40.75, Longitude: -73.99},
		{TreeID: 2, Status: "Poor", TreeDBH: 3, Latitude: 0, Longitude: 0},
	}
	if err := parquet.Write(&buf, rows); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	path := writeFile(t, "trees.parquet", buf.Bytes())
	p, _ := prepare(t, path, Options{})

	ds, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 1 || ds.Info().Dropped != 1 {
		t.Fatalf("expected 1 record and 1 dropped, got %d/%d", ds.Len(), ds.Info().Dropped)
	}
	r := ds.Records()[0]
	if v, _ := r.Get("status"); v.String() != "Good" {
		t.Errorf("status = %q", v.String())
	}
	if v, _ := r.Get("tree_id"); v.Kind() != value.KindNumber || v.String() != "1" {
		t.Errorf("tree_id = %v", v.Interface())
	}
}

func TestLoad_Errors(t *testing.T) {
	noCoords := writeFile(t, "trees.csv", []byte("tree_id,status\n1,Good\n"))
	empty := writeFile(t, "empty.csv", nil)
	ragged := writeFile(t, "ragged.csv", []byte("tree_id,latitude,longitude\n1,40.7,-73.9,extra\n"))

	tests := map[string]string{
		"missing file":        filepath.Join(t.TempDir(), "nope.csv"),
		"missing coordinates": noCoords,
		"empty file":          empty,
		"ragged row":          ragged,
		"storage disabled":    "s3://census/trees.csv",
		"no location":         "",
	}
	for name, loc := range tests {
		t.Run(name, func(t *testing.T) {
			p, _ := prepare(t, loc, Options{})
			_, err := p.Load(context.Background())
			if !errors.Is(err, domain.ErrDataUnavailable) {
				t.Errorf("expected ErrDataUnavailable, got %v", err)
			}
			var se *domain.SourceError
			if !errors.As(err, &se) {
				t.Errorf("expected SourceError, got %T", err)
			}
		})
	}
}

func TestSplitObjectLocation(t *testing.T) {
	bucket, key, err := splitObjectLocation("s3://census/2015/trees.csv.gz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bucket != "census" || key != "2015/trees.csv.gz" {
		t.Errorf("got %q %q", bucket, key)
	}
	for _, bad := range []string{"s3://census", "s3:///trees.csv", "s3://census/"} {
		if _, _, err := splitObjectLocation(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestDetect(t *testing.T) {
	c, base := detectCompression("trees.PARQUET.zst")
	if c != CompressionZstd || detectFormat(base) != FormatParquet {
		t.Errorf("got %q %q", c, detectFormat(base))
	}
	c, base = detectCompression("trees.csv")
	if c != CompressionNone || detectFormat(base) != FormatCSV {
		t.Errorf("got %q %q", c, detectFormat(base))
	}
}

type stubOpener struct{ data string }

func (s stubOpener) Open(_ context.Context, _ string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewBufferString(s.data)), nil
}

func TestLoad_ExplicitFormat(t *testing.T) {
	p := NewPreparer(stubOpener{data: treesCSV}, Options{
		Location: "s3://census/export",
		Format:   FormatCSV,
	}, zap.NewNop())
	ds, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 3 {
		t.Errorf("expected 3 records, got %d", ds.Len())
	}
	// without NumericFields tree_dbh keeps its raw text
	if ds.IsNumeric("tree_dbh") {
		t.Error("tree_dbh should not be coerced when not listed")
	}
}

func TestLoad_InfersNumericColumns(t *testing.T) {
	data := "tree_id,x_sp,zipcode,status,latitude,longitude\n" +
		"180683,1027431.148,11375,Good,40.72,-73.84\n" +
		"200540,1034455.701,,Fair,40.79,-73.81\n" +
		"204026,1001822.831,10023A,Good,40.77,-73.98\n"
	path := writeFile(t, "trees.csv", []byte(data))
	p, _ := prepare(t, path, Options{})

	ds, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, col := range []string{"tree_id", "x_sp"} {
		if !ds.IsNumeric(col) {
			t.Errorf("%s should be inferred as numeric", col)
		}
	}
	for _, col := range []string{"zipcode", "status"} {
		if ds.IsNumeric(col) {
			t.Errorf("%s has non-numeric cells and should stay text", col)
		}
	}

	first := ds.Records()[0]
	if v, _ := first.Get("tree_id"); v.Kind() != value.KindNumber || v.Interface() != float64(180683) {
		t.Errorf("tree_id = %#v", v.Interface())
	}
	if v, _ := ds.Records()[1].Get("zipcode"); !v.IsNull() {
		t.Errorf("empty zipcode should be missing, got %v", v.Interface())
	}
}
