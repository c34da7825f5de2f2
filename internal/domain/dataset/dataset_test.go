package dataset

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/kailas-cloud/arborist/internal/domain/record"
	"github.com/kailas-cloud/arborist/internal/domain/value"
)

func TestNew_ColumnsAndNumeric(t *testing.T) {
	recs := []record.Record{
		record.NewLocated(map[string]value.Value{
			"status":   value.Str("Good"),
			"tree_dbh": value.Num(12),
			"zipcode":  value.Num(10001),
		}, orb.Point{-73.9, 40.7}),
		record.New(map[string]value.Value{
			"status":   value.Null(),
			"tree_dbh": value.Null(),
			"zipcode":  value.Str("10001-2"),
		}),
	}
	ds := New([]string{"status", "tree_dbh", "zipcode"}, recs, Info{Source: "trees.csv", Dropped: 3})

	if ds.Len() != 2 || ds.Located() != 1 {
		t.Errorf("Len/Located = %d/%d", ds.Len(), ds.Located())
	}
	if !ds.IsNumeric("tree_dbh") {
		t.Error("tree_dbh should be numeric")
	}
	if ds.IsNumeric("zipcode") || ds.IsNumeric("status") {
		t.Error("columns with strings must not be numeric")
	}
	if ds.IsNumeric("latitude") || ds.HasColumn("latitude") {
		t.Error("unknown column reported")
	}
	if ds.Info().Source != "trees.csv" || ds.Info().Dropped != 3 {
		t.Errorf("Info = %+v", ds.Info())
	}
}

func TestRecord_Properties(t *testing.T) {
	r := record.New(map[string]value.Value{"status": value.Str("Good"), "tree_dbh": value.Null()})
	props := r.Properties()
	if props["status"] != "Good" {
		t.Errorf("status = %v", props["status"])
	}
	if v, ok := props["tree_dbh"]; !ok || v != nil {
		t.Errorf("tree_dbh = %v, %v; want nil, true", v, ok)
	}
	if r.HasLocation() {
		t.Error("record should not be located")
	}
}
