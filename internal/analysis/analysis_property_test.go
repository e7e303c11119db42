package analysis

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNormalizedPowerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("constant series normalizes to the constant", prop.ForAll(
		func(value float64, length int) bool {
			watts := make([]float64, length)
			for i := range watts {
				watts[i] = value
			}
			np := NormalizedPower(watts)
			if np == nil {
				return false
			}
			return math.Abs(*np-value) < 1e-6
		},
		gen.Float64Range(50, 450),
		gen.IntRange(NPWindow, 300),
	))

	properties.Property("normalized power is never below the minimum sample", prop.ForAll(
		func(values []float64) bool {
			if len(values) == 0 {
				return NormalizedPower(values) == nil
			}
			np := NormalizedPower(values)
			if np == nil {
				return false
			}
			min := values[0]
			max := values[0]
			for _, v := range values {
				if v < min {
					min = v
				}
				if v > max {
					max = v
				}
			}
			return *np >= min-1e-9 && *np <= max+1e-9
		},
		gen.SliceOf(gen.Float64Range(0, 500)),
	))

	properties.Property("rolling average preserves length", prop.ForAll(
		func(values []float64, window int) bool {
			return len(RollingAverage(values, window)) == len(values)
		},
		gen.SliceOf(gen.Float64Range(0, 500)),
		gen.IntRange(1, 60),
	))

	properties.TestingRun(t)
}

func TestTimeInZonesProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("bucket count is always zone count plus one", prop.ForAll(
		func(hr []float64, zones []float64) bool {
			buckets := TimeInZones(hr, nil, zones)
			if len(hr) == 0 {
				return buckets == nil
			}
			return len(buckets) == len(zones)+1
		},
		gen.SliceOf(gen.Float64Range(40, 210)),
		gen.SliceOf(gen.Float64Range(80, 200)),
	))

	properties.Property("without a time series the totals equal the sample count", prop.ForAll(
		func(hr []float64, zones []float64) bool {
			if len(hr) == 0 {
				return true
			}
			buckets := TimeInZones(hr, nil, zones)
			var total float64
			for _, b := range buckets {
				total += b
			}
			return math.Abs(total-float64(len(hr))) < 1e-9
		},
		gen.SliceOf(gen.Float64Range(40, 210)),
		gen.SliceOf(gen.Float64Range(80, 200)),
	))

	properties.Property("buckets are never negative", prop.ForAll(
		func(hr []float64, times []float64, zones []float64) bool {
			for _, b := range TimeInZones(hr, times, zones) {
				if b < 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(40, 210)),
		gen.SliceOf(gen.Float64Range(0, 7200)),
		gen.SliceOf(gen.Float64Range(80, 200)),
	))

	properties.TestingRun(t)
}
