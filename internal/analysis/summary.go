// Package analysis turns raw activity stream telemetry into physiological
// summaries: normalized power, intensity factor, training-stress score and
// heart-rate zone distribution. Everything here is a pure function of its
// inputs; malformed provider payloads degrade to absent values rather than
// errors.
package analysis

// StreamSummary is the per-activity roll-up of all stream-derived metrics.
// Immutable once built.
type StreamSummary struct {
	DurationSeconds *int              `json:"duration_seconds"`
	MovingSeconds   *int              `json:"moving_seconds"`
	DistanceKm      *float64          `json:"distance_km"`
	AverageSpeedKPH *float64          `json:"average_speed_kph"`
	Power           *PowerSummary     `json:"power"`
	HeartRate       *HeartRateSummary `json:"heart_rate"`
	CadenceAvg      *float64          `json:"cadence_avg"`
}

// Summarize builds a StreamSummary from a key_by_type streams payload, the
// athlete's FTP (nil when unknown) and the configured heart-rate zone
// thresholds (may be empty). Duration falls back to the power sample count
// when no time series is present; moving time falls back to duration when no
// moving series is present.
func Summarize(streams map[string]any, ftp *float64, hrZones []float64) StreamSummary {
	timeSeries := SeriesData(streams, StreamTime)
	distanceSeries := SeriesData(streams, StreamDistance)
	hrSeries := SeriesData(streams, StreamHeartrate)
	powerSeries := SeriesData(streams, StreamWatts)
	cadenceSeries := SeriesData(streams, StreamCadence)
	movingSeries := SeriesData(streams, StreamMoving)

	var duration *int
	if len(timeSeries) > 0 {
		d := int(timeSeries[len(timeSeries)-1])
		duration = &d
	} else if len(powerSeries) > 0 {
		d := len(powerSeries)
		duration = &d
	}

	var moving *int
	if len(movingSeries) > 0 {
		var sum float64
		for _, v := range movingSeries {
			sum += v
		}
		m := int(sum)
		moving = &m
	} else if duration != nil {
		m := *duration
		moving = &m
	}

	var distanceKm *float64
	if len(distanceSeries) > 0 {
		km := distanceSeries[len(distanceSeries)-1] / 1000.0
		distanceKm = &km
	}

	var averageSpeed *float64
	if distanceKm != nil && duration != nil && *duration > 0 {
		kph := *distanceKm / float64(*duration) * 3600.0
		averageSpeed = &kph
	}

	var cadenceAvg *float64
	if avg, ok := mean(cadenceSeries); ok {
		cadenceAvg = &avg
	}

	return StreamSummary{
		DurationSeconds: duration,
		MovingSeconds:   moving,
		DistanceKm:      distanceKm,
		AverageSpeedKPH: averageSpeed,
		Power:           summarizePower(powerSeries, duration, ftp),
		HeartRate:       summarizeHeartRate(hrSeries, timeSeries, hrZones),
		CadenceAvg:      cadenceAvg,
	}
}
