package analysis

import "math"

// NPWindow is the rolling-average window used for normalized power, in
// samples. Strava streams are one sample per second, so this is the standard
// 30-second window.
const NPWindow = 30

// PowerSummary holds the power-derived load metrics for one activity.
// Fields are nil when their inputs were unavailable.
type PowerSummary struct {
	Average         *float64 `json:"average"`
	Normalized      *float64 `json:"normalized"`
	IntensityFactor *float64 `json:"intensity_factor"`
	TSS             *float64 `json:"tss"`
}

// RollingAverage computes a trailing-window average for each index. The
// window expands from 1 until it reaches size, then trails at exactly size
// samples. The result has the same length as the input.
func RollingAverage(values []float64, window int) []float64 {
	if len(values) == 0 {
		return nil
	}
	if window < 1 {
		window = 1
	}
	rolling := make([]float64, 0, len(values))
	var cumulative float64
	for i, v := range values {
		cumulative += v
		if i >= window {
			cumulative -= values[i-window]
			rolling = append(rolling, cumulative/float64(window))
		} else {
			rolling = append(rolling, cumulative/float64(i+1))
		}
	}
	return rolling
}

// NormalizedPower is the quartic mean of the 30-sample rolling average:
// (mean(v^4))^0.25. Returns nil for an empty power series.
func NormalizedPower(watts []float64) *float64 {
	if len(watts) == 0 {
		return nil
	}
	rolling := RollingAverage(watts, NPWindow)
	var fourthPowerSum float64
	for _, v := range rolling {
		fourthPowerSum += math.Pow(v, 4)
	}
	np := math.Pow(fourthPowerSum/float64(len(rolling)), 0.25)
	return &np
}

// IntensityFactor is normalized power as a fraction of FTP. Nil when either
// operand is missing or zero, or FTP is not positive.
func IntensityFactor(np, ftp *float64) *float64 {
	if np == nil || *np == 0 || ftp == nil || *ftp <= 0 {
		return nil
	}
	intensity := *np / *ftp
	return &intensity
}

// TSS is the standard training-stress score:
//
//	(duration_seconds * NP * IF) / (FTP * 3600) * 100
//
// Nil unless duration, normalized power, intensity factor and a positive FTP
// are all present.
func TSS(durationSeconds *int, np, intensityFactor, ftp *float64) *float64 {
	if durationSeconds == nil || *durationSeconds == 0 {
		return nil
	}
	if np == nil || *np == 0 || intensityFactor == nil || *intensityFactor == 0 {
		return nil
	}
	if ftp == nil || *ftp <= 0 {
		return nil
	}
	tss := (float64(*durationSeconds) * *np * *intensityFactor) / (*ftp * 3600) * 100
	return &tss
}

// summarizePower assembles the power summary for a watts series. Returns nil
// when no metric could be computed.
func summarizePower(watts []float64, durationSeconds *int, ftp *float64) *PowerSummary {
	var average *float64
	if avg, ok := mean(watts); ok {
		average = &avg
	}
	np := NormalizedPower(watts)
	intensity := IntensityFactor(np, ftp)
	tss := TSS(durationSeconds, np, intensity, ftp)

	if average == nil && np == nil && intensity == nil && tss == nil {
		return nil
	}
	return &PowerSummary{
		Average:         average,
		Normalized:      np,
		IntensityFactor: intensity,
		TSS:             tss,
	}
}
