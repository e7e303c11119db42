package service

import (
	"fmt"
	"math"
	"time"

	"reroute/internal/domain"
)

// maxEmpathyCues keeps the cue list short enough for prompt brevity.
const maxEmpathyCues = 4

// deriveEmpathyCues turns recent history and aggregate stats into short
// human-tone observations for the agent prompt. Order is fixed: latest-ride
// cues first, then the four-week aggregates, capped at maxEmpathyCues.
func deriveEmpathyCues(recent []domain.ActivitySummary, stats *domain.AthleteStats, now time.Time) []string {
	var cues []string

	if len(recent) > 0 {
		latest := recent[0]

		if latest.StartDate != nil {
			daysSince := int(now.UTC().Sub(latest.StartDate.UTC()).Hours() / 24)
			if daysSince >= 4 {
				cues = append(cues, fmt.Sprintf("No ride logged for %d days — ease them back gently.", daysSince))
			}
		}

		if latest.Streams != nil && latest.Streams.Power != nil {
			power := latest.Streams.Power
			if power.TSS != nil && *power.TSS > 120 {
				cues = append(cues, fmt.Sprintf("Latest ride carried a heavy load (TSS %d).", int(*power.TSS)))
			}
			if power.IntensityFactor != nil && *power.IntensityFactor > 1.05 {
				cues = append(cues, "Recent session pushed above FTP — plan for additional recovery.")
			}
		}

		if latest.MovingTimeSeconds > 7200 {
			cues = append(cues, "Athlete handled a long ride recently — maintain endurance focus.")
		}
	}

	if stats != nil && stats.RecentRideTotals != nil {
		totals := stats.RecentRideTotals
		if totals.Count > 0 {
			cues = append(cues, fmt.Sprintf("Completed %d rides in the last 4 weeks.", totals.Count))
		}
		if totals.MovingTime > 0 {
			hours := math.Round(float64(totals.MovingTime)/3600*10) / 10
			if hours != 0 {
				cues = append(cues, fmt.Sprintf("Logged approximately %.1f hours recently — maintain load consistency.", hours))
			}
		}
	}

	if len(cues) > maxEmpathyCues {
		cues = cues[:maxEmpathyCues]
	}
	return cues
}
