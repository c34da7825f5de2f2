package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"github.com/kailas-cloud/arborist/internal/domain"
	"github.com/kailas-cloud/arborist/internal/domain/criteria"
	"github.com/kailas-cloud/arborist/internal/domain/dataset"
	"github.com/kailas-cloud/arborist/internal/domain/field"
	"github.com/kailas-cloud/arborist/internal/domain/record"
	"github.com/kailas-cloud/arborist/internal/domain/value"
)

var treeColumns = []string{"tree_id", "status", "spc_common", "boroname", "zipcode", "sidw_crack", "tree_dbh"}

type tree struct {
	id      int
	status  string
	species string
	boro    string
	zip     float64
	crack   string
	dbh     value.Value
}

func newTree(id int, status string, dbh float64) tree {
	return tree{id: id, status: status, species: "OAK, PIN", boro: "Manhattan", zip: 10001, crack: "No", dbh: value.Num(dbh)}
}

func (t tree) record() record.Record {
	return record.NewLocated(map[string]value.Value{
		"tree_id":    value.Num(float64(t.id)),
		"status":     value.Text(t.status),
		"spc_common": value.Text(t.species),
		"boroname":   value.Text(t.boro),
		"zipcode":    value.Num(t.zip),
		"sidw_crack": value.Text(t.crack),
		"tree_dbh":   t.dbh,
	}, orb.Point{-73.99, 40.75})
}

func newDataset(trees ...tree) *dataset.Dataset {
	recs := make([]record.Record, 0, len(trees))
	for _, t := range trees {
		recs = append(recs, t.record())
	}
	return dataset.New(treeColumns, recs, dataset.Info{Source: "test"})
}

func ids(res Result) []string {
	out := make([]string, 0, res.Len())
	for _, r := range res.Records() {
		v, _ := r.Get("tree_id")
		out = append(out, v.String())
	}
	return out
}

func equalIDs(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func eq(f string, v value.Value) criteria.Criterion { return criteria.New(f, criteria.Eq, v) }

func threeTrees() *dataset.Dataset {
	return newDataset(
		newTree(1, "Good", 12),
		newTree(2, "Poor", 3),
		newTree(3, "Good", 0),
	)
}

func TestApply_StatusWithImplicitDefault(t *testing.T) {
	e := New(field.DefaultSchema())
	res, err := e.Apply(context.Background(), threeTrees(), criteria.NewSet(eq("status", value.Str("Good"))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(res); !equalIDs(got, "1") {
		t.Errorf("expected [1], got %v", got)
	}
	d := res.Default()
	if !d.Applied || d.Field != "tree_dbh" || d.Removed != 1 {
		t.Errorf("unexpected default outcome %+v", d)
	}
	if o := res.Outcomes()[0]; o.Status != Applied || o.Removed != 1 {
		t.Errorf("unexpected outcome %+v", o)
	}
}

func TestApply_EmptySetAppliesDefault(t *testing.T) {
	e := New(field.DefaultSchema())
	res, err := e.Apply(context.Background(), threeTrees(), criteria.NewSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(res); !equalIDs(got, "1", "2") {
		t.Errorf("expected [1 2], got %v", got)
	}
	if len(res.Outcomes()) != 0 {
		t.Errorf("expected no outcomes, got %d", len(res.Outcomes()))
	}
}

func TestApply_ExplicitDiameterSuppressesDefault(t *testing.T) {
	e := New(field.DefaultSchema())
	set := criteria.NewSet(criteria.New("tree_dbh", criteria.Gte, value.Num(0)))
	res, err := e.Apply(context.Background(), threeTrees(), set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(res); !equalIDs(got, "1", "2", "3") {
		t.Errorf("expected all trees, got %v", got)
	}
	if res.Default().Applied {
		t.Error("default must not apply when tree_dbh is named")
	}
}

func TestApply_NoMatches(t *testing.T) {
	ds := newDataset(newTree(1, "Good", 50), newTree(2, "Good", 20))
	set := criteria.NewSet(criteria.New("tree_dbh", criteria.Gt, value.Num(100)))
	res, err := New(field.DefaultSchema()).Apply(context.Background(), ds, set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Len() != 0 {
		t.Errorf("expected empty result, got %v", ids(res))
	}
}

func TestApply_UnknownFieldSkipped(t *testing.T) {
	set := criteria.NewSet(
		eq("unknown_col", value.Str("x")),
		eq("status", value.Str("Poor")),
	)
	res, err := New(field.DefaultSchema()).Apply(context.Background(), threeTrees(), set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(res); !equalIDs(got, "2") {
		t.Errorf("expected [2], got %v", got)
	}
	o := res.Outcomes()[0]
	if o.Status != Skipped || o.Reason != field.ReasonUnknownField {
		t.Errorf("expected unknown_field skip, got %+v", o)
	}
	if res.Skipped() != 1 {
		t.Errorf("expected 1 skipped, got %d", res.Skipped())
	}
}

func TestApply_SkipReasons(t *testing.T) {
	tests := []struct {
		name string
		c    criteria.Criterion
		want field.Reason
	}{
		{"missing field", eq("", value.Str("Good")), field.ReasonInvalidCriterion},
		{"missing value", eq("status", value.Null()), field.ReasonInvalidCriterion},
		{"missing operator", criteria.New("status", "", value.Str("Good")), field.ReasonInvalidCriterion},
		{"not in dataset", eq("trunk_dmg", value.Str("Yes")), field.ReasonFieldNotInDataset},
		{"range on categorical", criteria.New("status", criteria.Gt, value.Str("Good")), field.ReasonUnsupportedOperator},
		{"unknown operator", criteria.New("tree_dbh", "!=", value.Num(3)), field.ReasonUnsupportedOperator},
		{"non-numeric bound", criteria.New("tree_dbh", criteria.Gt, value.Str("big")), field.ReasonInvalidValue},
		{"bad flag", eq("sidw_crack", value.Str("maybe")), field.ReasonInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(field.DefaultSchema()).Apply(context.Background(), threeTrees(), criteria.NewSet(tt.c))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			o := res.Outcomes()[0]
			if o.Status != Skipped || o.Reason != tt.want {
				t.Errorf("expected skip %q, got %+v", tt.want, o)
			}
		})
	}
}

func TestApply_CaseInsensitive(t *testing.T) {
	set := criteria.NewSet(
		eq("status", value.Str("good")),
		eq("spc_common", value.Str("oak, pin")),
		eq("boroname", value.Str("MANHATTAN")),
	)
	res, err := New(field.DefaultSchema()).Apply(context.Background(), threeTrees(), set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(res); !equalIDs(got, "1") {
		t.Errorf("expected [1], got %v", got)
	}
}

func TestApply_NumericZipcodeMatchesString(t *testing.T) {
	set := criteria.NewSet(eq("zipcode", value.Str("10001")))
	res, err := New(field.DefaultSchema()).Apply(context.Background(), threeTrees(), set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Len() != 2 {
		t.Errorf("expected 2 matches, got %v", ids(res))
	}
}

func TestApply_BinaryFlagNormalized(t *testing.T) {
	cracked := newTree(4, "Good", 10)
	cracked.crack = "Yes"
	ds := newDataset(newTree(1, "Good", 12), cracked)
	for _, v := range []value.Value{value.Str("yes"), value.Str("TRUE"), value.Num(1), value.Str("y")} {
		res, err := New(field.DefaultSchema()).Apply(context.Background(), ds, criteria.NewSet(eq("sidw_crack", v)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := ids(res); !equalIDs(got, "4") {
			t.Errorf("value %v: expected [4], got %v", v.Interface(), got)
		}
	}
}

func TestApply_MissingValuesNeverMatch(t *testing.T) {
	blank := newTree(5, "", 8)
	unmeasured := newTree(6, "Good", 0)
	unmeasured.dbh = value.Null()
	ds := newDataset(newTree(1, "Good", 12), blank, unmeasured)

	set := criteria.NewSet(criteria.New("tree_dbh", criteria.Lt, value.Num(100)))
	res, err := New(field.DefaultSchema()).Apply(context.Background(), ds, set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(res); !equalIDs(got, "1", "5") {
		t.Errorf("expected [1 5], got %v", got)
	}

	res, err = New(field.DefaultSchema()).Apply(context.Background(), ds, criteria.NewSet(eq("status", value.Str(""))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Len() != 0 {
		t.Errorf("blank status must not match missing values, got %v", ids(res))
	}
}

func TestApply_ShortCircuit(t *testing.T) {
	set := criteria.NewSet(
		eq("status", value.Str("Dead")),
		eq("boroname", value.Str("Manhattan")),
		eq("unknown_col", value.Str("x")),
	)
	res, err := New(field.DefaultSchema()).Apply(context.Background(), threeTrees(), set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Len() != 0 {
		t.Fatalf("expected empty result, got %v", ids(res))
	}
	out := res.Outcomes()
	if out[0].Status != Applied || out[0].Removed != 2 {
		t.Errorf("unexpected first outcome %+v", out[0])
	}
	for _, o := range out[1:] {
		if o.Status != NotReached || o.Removed != 0 {
			t.Errorf("expected not_reached, got %+v", o)
		}
	}
}

func TestApply_OrderPreservedAndSubset(t *testing.T) {
	ds := newDataset(
		newTree(10, "Good", 5),
		newTree(11, "Poor", 7),
		newTree(12, "Good", 9),
		newTree(13, "Good", 11),
	)
	set := criteria.NewSet(
		eq("status", value.Str("Good")),
		criteria.New("tree_dbh", criteria.Gte, value.Num(9)),
	)
	res, err := New(field.DefaultSchema()).Apply(context.Background(), ds, set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(res); !equalIDs(got, "12", "13") {
		t.Errorf("expected [12 13], got %v", got)
	}
	if ds.Len() != 4 {
		t.Errorf("dataset must not be modified, len=%d", ds.Len())
	}
	if got := ids(NewResult(ds.Records(), 4, DefaultOutcome{}, nil)); !equalIDs(got, "10", "11", "12", "13") {
		t.Errorf("dataset order changed: %v", got)
	}
}

func TestApply_Idempotent(t *testing.T) {
	ds := threeTrees()
	set := criteria.NewSet(eq("status", value.Str("Good")))
	e := New(field.DefaultSchema())

	first, err := e.Apply(context.Background(), ds, set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, err := e.Apply(context.Background(), dataset.New(treeColumns, first.Records(), dataset.Info{}), set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalIDs(ids(again), ids(first)...) {
		t.Errorf("expected %v, got %v", ids(first), ids(again))
	}
}

func TestApply_NilDataset(t *testing.T) {
	_, err := New(field.DefaultSchema()).Apply(context.Background(), nil, criteria.NewSet())
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestApply_DefaultSkippedWhenColumnMissing(t *testing.T) {
	recs := []record.Record{
		record.NewLocated(map[string]value.Value{"status": value.Str("Good")}, orb.Point{-73.9, 40.7}),
	}
	ds := dataset.New([]string{"status"}, recs, dataset.Info{})
	res, err := New(field.DefaultSchema()).Apply(context.Background(), ds, criteria.NewSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Default().Applied || res.Len() != 1 {
		t.Errorf("expected default to be skipped, got %+v len=%d", res.Default(), res.Len())
	}
}
