package analysis

// HeartRateSummary holds heart-rate aggregates and the time-in-zone
// distribution for one activity.
type HeartRateSummary struct {
	Average     *float64  `json:"average"`
	Max         *float64  `json:"max"`
	TimeInZones []float64 `json:"time_in_zones"`
}

// TimeInZones buckets cumulative seconds by heart-rate zone. zones is a list
// of exclusive upper thresholds scanned in the order given; values above
// every threshold fall into the last bucket, so the result always has
// len(zones)+1 entries. Thresholds are expected in ascending order; an
// unsorted list is a caller error and is not reordered here.
//
// The per-sample time delta comes from the parallel time series
// (time[i+1]-time[i], clamped to >= 0). The final sample, or any sample the
// time series does not cover, defaults to 1 second.
func TimeInZones(hr, times []float64, zones []float64) []float64 {
	if len(hr) == 0 {
		return nil
	}
	buckets := make([]float64, len(zones)+1)
	for i, value := range hr {
		delta := 1.0
		if i+1 < len(times) {
			delta = times[i+1] - times[i]
			if delta < 0 {
				delta = 0
			}
		}
		bucket := 0
		for _, threshold := range zones {
			if value > threshold {
				bucket++
			} else {
				break
			}
		}
		buckets[bucket] += delta
	}
	return buckets
}

// summarizeHeartRate assembles the heart-rate summary. Present whenever the
// heart-rate series is non-empty; nil otherwise.
func summarizeHeartRate(hr, times []float64, zones []float64) *HeartRateSummary {
	var average, max *float64
	if avg, ok := mean(hr); ok {
		average = &avg
	}
	if len(hr) > 0 {
		peak := hr[0]
		for _, v := range hr[1:] {
			if v > peak {
				peak = v
			}
		}
		max = &peak
	}
	timeInZones := TimeInZones(hr, times, zones)

	if average == nil && max == nil && len(timeInZones) == 0 {
		return nil
	}
	return &HeartRateSummary{
		Average:     average,
		Max:         max,
		TimeInZones: timeInZones,
	}
}
