package service

import (
	"reflect"
	"testing"
	"time"

	"reroute/internal/analysis"
	"reroute/internal/domain"
)

func cueClock() time.Time {
	return time.Date(2026, 4, 6, 12, 0, 0, 0, time.UTC)
}

func timeP(t time.Time) *time.Time { return &t }
func floatP(v float64) *float64    { return &v }

func TestDeriveEmpathyCues(t *testing.T) {
	now := cueClock()

	tests := []struct {
		name   string
		recent []domain.ActivitySummary
		stats  *domain.AthleteStats
		want   []string
	}{
		{
			name: "no history no stats",
			want: nil,
		},
		{
			name: "long gap since last ride",
			recent: []domain.ActivitySummary{
				{StartDate: timeP(now.AddDate(0, 0, -5))},
			},
			want: []string{"No ride logged for 5 days — ease them back gently."},
		},
		{
			name: "gap under four days stays quiet",
			recent: []domain.ActivitySummary{
				{StartDate: timeP(now.AddDate(0, 0, -2))},
			},
			want: nil,
		},
		{
			name: "heavy ride with high intensity",
			recent: []domain.ActivitySummary{
				{
					StartDate: timeP(now.AddDate(0, 0, -1)),
					Streams: &analysis.StreamSummary{
						Power: &analysis.PowerSummary{
							TSS:             floatP(135.7),
							IntensityFactor: floatP(1.12),
						},
					},
				},
			},
			want: []string{
				"Latest ride carried a heavy load (TSS 135).",
				"Recent session pushed above FTP — plan for additional recovery.",
			},
		},
		{
			name: "long ride",
			recent: []domain.ActivitySummary{
				{StartDate: timeP(now.AddDate(0, 0, -1)), MovingTimeSeconds: 7300},
			},
			want: []string{"Athlete handled a long ride recently — maintain endurance focus."},
		},
		{
			name: "stats only",
			stats: &domain.AthleteStats{
				RecentRideTotals: &domain.ActivityTotals{Count: 12, MovingTime: 9000},
			},
			want: []string{
				"Completed 12 rides in the last 4 weeks.",
				"Logged approximately 2.5 hours recently — maintain load consistency.",
			},
		},
		{
			name: "everything at once is capped at four",
			recent: []domain.ActivitySummary{
				{
					StartDate:         timeP(now.AddDate(0, 0, -6)),
					MovingTimeSeconds: 8000,
					Streams: &analysis.StreamSummary{
						Power: &analysis.PowerSummary{
							TSS:             floatP(150),
							IntensityFactor: floatP(1.2),
						},
					},
				},
			},
			stats: &domain.AthleteStats{
				RecentRideTotals: &domain.ActivityTotals{Count: 9, MovingTime: 36000},
			},
			want: []string{
				"No ride logged for 6 days — ease them back gently.",
				"Latest ride carried a heavy load (TSS 150).",
				"Recent session pushed above FTP — plan for additional recovery.",
				"Athlete handled a long ride recently — maintain endurance focus.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveEmpathyCues(tt.recent, tt.stats, now)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("cues = %#v,\nwant %#v", got, tt.want)
			}
		})
	}
}
