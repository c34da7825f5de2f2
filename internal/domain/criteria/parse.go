package criteria

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/arborist/internal/domain"
	"github.com/kailas-cloud/arborist/internal/domain/value"
)

// ParseSet decodes {"filters": [{"field": .., "operator": .., "value": ..}, ...]}.
//
// Structural problems (not JSON, no filters array, non-object entries) fail with
// domain.ErrMalformedCriteria. Entries with missing or mistyped members are kept
// as invalid criteria so they surface as skipped during filtering.
func ParseSet(raw []byte) (Set, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Set{}, fmt.Errorf("%w: %w", domain.ErrMalformedCriteria, err)
	}
	if envelope == nil {
		return Set{}, fmt.Errorf("%w: expected a JSON object", domain.ErrMalformedCriteria)
	}

	filtersRaw, ok := envelope["filters"]
	if !ok || isNull(filtersRaw) {
		return Set{}, fmt.Errorf("%w: missing filters array", domain.ErrMalformedCriteria)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(filtersRaw, &entries); err != nil {
		return Set{}, fmt.Errorf("%w: filters is not an array", domain.ErrMalformedCriteria)
	}

	items := make([]Criterion, 0, len(entries))
	for i, entry := range entries {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(entry, &obj); err != nil || obj == nil {
			return Set{}, fmt.Errorf("%w: filters[%d] is not an object", domain.ErrMalformedCriteria, i)
		}
		items = append(items, New(
			decodeString(obj["field"]),
			Operator(decodeString(obj["operator"])),
			decodeValue(obj["value"]),
		))
	}
	return NewSet(items...), nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeString returns "" for absent or non-string members.
func decodeString(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// decodeValue maps JSON strings and numbers, and booleans to "true"/"false"; everything else is Null.
func decodeValue(raw json.RawMessage) value.Value {
	if raw == nil || isNull(raw) {
		return value.Null()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return value.Str(strconv.FormatBool(b))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return value.Str(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return value.Num(f)
	}
	return value.Null()
}
