package analysis

import (
	"encoding/json"
	"strconv"
)

// Stream type keys as Strava names them.
const (
	StreamTime      = "time"
	StreamDistance  = "distance"
	StreamHeartrate = "heartrate"
	StreamWatts     = "watts"
	StreamCadence   = "cadence"
	StreamMoving    = "moving"
)

// SeriesData extracts the numeric sequence stored under streams[key]["data"].
// The payload comes from a third-party API, so nothing about its shape is
// trusted: a missing key, a record that is not an object, or a data field
// that is not a list all yield an empty sequence. Elements that cannot be
// coerced to a number are skipped.
func SeriesData(streams map[string]any, key string) []float64 {
	if streams == nil {
		return nil
	}
	record, ok := streams[key].(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := record["data"].([]any)
	if !ok {
		return nil
	}
	values := make([]float64, 0, len(raw))
	for _, item := range raw {
		if v, ok := toFloat(item); ok {
			values = append(values, v)
		}
	}
	return values
}

// toFloat coerces the element types a decoded JSON stream can carry. The
// moving stream is a boolean series; true counts as one second.
func toFloat(item any) (float64, bool) {
	switch v := item.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// mean returns the arithmetic mean, or 0 with ok=false for an empty slice.
func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}
