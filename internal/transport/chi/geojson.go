package chi

import (
	"bytes"
	"encoding/json"

	"github.com/paulmach/orb/geojson"

	"github.com/kailas-cloud/arborist/internal/usecase/filter"
	queryuc "github.com/kailas-cloud/arborist/internal/usecase/query"
)

func init() {
	geojson.CustomJSONMarshaler = literalJSON{}
}

// literalJSON marshals without HTML escaping so criteria operators render as "<=" and ">".
type literalJSON struct{}

func (literalJSON) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err //nolint:wrapcheck // orb wraps marshal errors
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// provenance explains how the returned features were selected.
type provenance struct {
	InputCount    int                   `json:"input_count"`
	MatchedCount  int                   `json:"matched_count"`
	ReturnedCount int                   `json:"returned_count"`
	DefaultFilter filter.DefaultOutcome `json:"default_filter"`
	Criteria      []filter.Outcome      `json:"criteria"`
}

// FeatureCollection renders the query response as GeoJSON.
// Records reaching this point always carry a location.
func FeatureCollection(resp queryuc.Response) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = make([]*geojson.Feature, 0, len(resp.Records))
	for _, rec := range resp.Records {
		p, ok := rec.Location()
		if !ok {
			continue
		}
		f := geojson.NewFeature(p)
		f.Properties = geojson.Properties(rec.Properties())
		fc.Append(f)
	}

	fc.ExtraMembers = geojson.Properties{"metadata": resp.Metadata}
	if resp.Explain {
		outcomes := resp.Filter.Outcomes()
		if outcomes == nil {
			outcomes = []filter.Outcome{}
		}
		fc.ExtraMembers["criteria"] = resp.Criteria
		fc.ExtraMembers["provenance"] = provenance{
			InputCount:    resp.Filter.Input(),
			MatchedCount:  resp.Filter.Len(),
			ReturnedCount: len(fc.Features),
			DefaultFilter: resp.Filter.Default(),
			Criteria:      outcomes,
		}
	}
	return fc
}
