package docstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// decodeValue converts one typed wire value into a plain Go value:
// strings, int64, float64, bool, time.Time, nil, nested maps and
// slices. Unrecognized or malformed values decode to nil so a single
// bad field does not sink a whole record.
func decodeValue(raw json.RawMessage) any {
	var v map[string]json.RawMessage
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}

	if s, ok := v["stringValue"]; ok {
		var out string
		if json.Unmarshal(s, &out) == nil {
			return out
		}
		return nil
	}
	if s, ok := v["integerValue"]; ok {
		// Integers travel as strings to survive 64-bit precision.
		var str string
		if json.Unmarshal(s, &str) == nil {
			if n, err := strconv.ParseInt(str, 10, 64); err == nil {
				return n
			}
		}
		return nil
	}
	if s, ok := v["doubleValue"]; ok {
		var out float64
		if json.Unmarshal(s, &out) == nil {
			return out
		}
		return nil
	}
	if s, ok := v["booleanValue"]; ok {
		var out bool
		if json.Unmarshal(s, &out) == nil {
			return out
		}
		return nil
	}
	if s, ok := v["timestampValue"]; ok {
		var str string
		if json.Unmarshal(s, &str) == nil {
			if t, err := time.Parse(time.RFC3339Nano, str); err == nil {
				return t
			}
		}
		return nil
	}
	if _, ok := v["nullValue"]; ok {
		return nil
	}
	if s, ok := v["mapValue"]; ok {
		var wrapper struct {
			Fields map[string]json.RawMessage `json:"fields"`
		}
		if json.Unmarshal(s, &wrapper) == nil {
			out := make(map[string]any, len(wrapper.Fields))
			for name, f := range wrapper.Fields {
				out[name] = decodeValue(f)
			}
			return out
		}
		return nil
	}
	if s, ok := v["arrayValue"]; ok {
		var wrapper struct {
			Values []json.RawMessage `json:"values"`
		}
		if json.Unmarshal(s, &wrapper) == nil {
			out := make([]any, len(wrapper.Values))
			for i, item := range wrapper.Values {
				out[i] = decodeValue(item)
			}
			return out
		}
		return nil
	}
	return nil
}

// encodeValue converts a plain Go value into its typed wire form for
// filter clauses.
func encodeValue(v any) map[string]any {
	switch val := v.(type) {
	case string:
		return map[string]any{"stringValue": val}
	case int:
		return map[string]any{"integerValue": strconv.Itoa(val)}
	case int64:
		return map[string]any{"integerValue": strconv.FormatInt(val, 10)}
	case float64:
		return map[string]any{"doubleValue": val}
	case bool:
		return map[string]any{"booleanValue": val}
	case time.Time:
		return map[string]any{"timestampValue": val.UTC().Format(time.RFC3339Nano)}
	case nil:
		return map[string]any{"nullValue": nil}
	default:
		return map[string]any{"stringValue": fmt.Sprintf("%v", val)}
	}
}
