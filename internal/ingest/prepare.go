// Package ingest reads the tree census from a local file or object storage and
// prepares it as an immutable dataset.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/kailas-cloud/arborist/internal/domain"
	"github.com/kailas-cloud/arborist/internal/domain/dataset"
	"github.com/kailas-cloud/arborist/internal/domain/geo"
	"github.com/kailas-cloud/arborist/internal/domain/record"
	"github.com/kailas-cloud/arborist/internal/domain/value"
)

// Coordinate columns of the source.
const (
	LatitudeColumn  = "latitude"
	LongitudeColumn = "longitude"
)

// Format of a source document.
type Format string

// Supported formats. FormatAuto picks one from the file extension.
const (
	FormatAuto    Format = ""
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// Options controls dataset preparation.
type Options struct {
	// Location is a local path or s3://bucket/key, optionally ending in .gz or .zst.
	Location string
	Format   Format
	// NumericFields are coerced to numbers; unparsable values become missing.
	NumericFields []string
	// KeepUnlocated keeps rows with invalid coordinates, without a location.
	KeepUnlocated bool
}

// opener is the consumer interface for reading sources (ISP).
type opener interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// Preparer loads and cleans the dataset described by its options.
type Preparer struct {
	opener opener
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// NewPreparer creates a preparer.
func NewPreparer(o opener, opts Options, logger *zap.Logger) *Preparer {
	return &Preparer{opener: o, opts: opts, logger: logger, now: time.Now}
}

// Load reads the source and returns a cleaned dataset.
// Every failure wraps domain.ErrDataUnavailable.
func (p *Preparer) Load(ctx context.Context) (*dataset.Dataset, error) {
	loc := p.opts.Location
	if loc == "" {
		return nil, domain.NewSourceError("", errors.New("no dataset location configured"))
	}

	rc, err := p.opener.Open(ctx, loc)
	if err != nil {
		return nil, domain.NewSourceError(loc, err)
	}
	defer func() { _ = rc.Close() }()

	compression, base := detectCompression(loc)
	data, err := decompress(rc, compression)
	if err != nil {
		return nil, domain.NewSourceError(loc, err)
	}

	format := p.opts.Format
	if format == FormatAuto {
		format = detectFormat(base)
	}

	var t *table
	switch format {
	case FormatCSV:
		t, err = readCSV(data)
	case FormatParquet:
		t, err = readParquet(data)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, domain.NewSourceError(loc, err)
	}

	ds, err := Clean(t.columns, t.rows, p.opts.NumericFields, p.opts.KeepUnlocated, dataset.Info{
		Source:   loc,
		LoadedAt: p.now(),
	})
	if err != nil {
		return nil, domain.NewSourceError(loc, err)
	}

	if dropped := ds.Info().Dropped; dropped > 0 {
		p.logger.Info("Dropped rows with invalid coordinates",
			zap.String("source", loc),
			zap.Int("dropped", dropped),
		)
	}
	return ds, nil
}

func detectFormat(location string) Format {
	if strings.EqualFold(filepath.Ext(location), ".parquet") {
		return FormatParquet
	}
	return FormatCSV
}

// Clean builds a dataset from raw rows. Numeric fields and coordinates are
// coerced to numbers, unparsable cells becoming Null. Any other column whose
// non-empty cells all parse as numbers is converted as well. Rows whose coordinates are missing, out of range, or at
// the (0,0) placeholder are dropped unless keepUnlocated is set.
func Clean(
	columns []string,
	rows [][]value.Value,
	numeric []string,
	keepUnlocated bool,
	info dataset.Info,
) (*dataset.Dataset, error) {
	pos := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := pos[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		pos[c] = i
	}

	latIdx, hasLat := pos[LatitudeColumn]
	lonIdx, hasLon := pos[LongitudeColumn]
	if !hasLat || !hasLon {
		return nil, fmt.Errorf("missing %s/%s columns", LatitudeColumn, LongitudeColumn)
	}

	coerce := make([]bool, len(columns))
	coerce[latIdx], coerce[lonIdx] = true, true
	for _, name := range numeric {
		if i, ok := pos[name]; ok {
			coerce[i] = true
		}
	}
	for i := range columns {
		if !coerce[i] {
			coerce[i] = allNumeric(rows, i)
		}
	}

	records := make([]record.Record, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		fields := make(map[string]value.Value, len(columns))
		for i, c := range columns {
			var v value.Value
			if i < len(row) {
				v = row[i]
			}
			if coerce[i] && v.Kind() == value.KindString {
				v = value.Coerce(v.String())
			}
			fields[c] = v
		}

		lat, latOK := fields[LatitudeColumn].Float()
		lon, lonOK := fields[LongitudeColumn].Float()
		var (
			pt      orb.Point
			located bool
		)
		if latOK && lonOK {
			pt, located = geo.ToPoint(lat, lon)
		}

		switch {
		case located:
			records = append(records, record.NewLocated(fields, pt))
		case keepUnlocated:
			records = append(records, record.New(fields))
		default:
			dropped++
		}
	}

	info.Dropped = dropped
	return dataset.New(columns, records, info), nil
}

// allNumeric reports whether column i has at least one string cell and every
// non-null cell parses as a finite number.
func allNumeric(rows [][]value.Value, i int) bool {
	seen := false
	for _, row := range rows {
		if i >= len(row) {
			continue
		}
		v := row[i]
		switch v.Kind() {
		case value.KindNull, value.KindNumber:
			continue
		}
		if _, ok := v.Float(); !ok {
			return false
		}
		seen = true
	}
	return seen
}
