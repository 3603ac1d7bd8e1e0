package attendance

import (
	"math"
	"time"
)

// Rate bands
const (
	BandExcellent = "excellent"
	BandGood      = "good"
	BandFair      = "fair"
	BandPoor      = "poor"
	BandNoData    = "no_data"

	excellentPercent = 95
	goodPercent      = 85
)

// DefaultChronicThreshold is the attendance rate under which absence is chronic.
const DefaultChronicThreshold = 0.75

// Policy holds the tunable attendance rules.
type Policy struct {
	ChronicThreshold float64
}

var DefaultPolicy = Policy{ChronicThreshold: DefaultChronicThreshold}

// Summary aggregates the marked days of a student. Days without a mark are not counted.
type Summary struct {
	Present   int     `json:"present"`
	Absent    int     `json:"absent"`
	Late      int     `json:"late"`
	Excused   int     `json:"excused"`
	Total     int     `json:"total"`
	Rate      float64 `json:"rate"` // present / total, 0 when total is 0
	IsChronic bool    `json:"is_chronic"`
}

// Percent returns Rate as a whole percentage.
func (s Summary) Percent() int {
	return int(math.Round(s.Rate * 100))
}

// Summarize aggregates `records` under the default policy.
func Summarize(records []Record) Summary {
	return DefaultPolicy.Summarize(records)
}

// Summarize aggregates `records`. Absence is chronic when the rate is strictly below the threshold;
// a student with no marked day is never chronic.
func (p Policy) Summarize(records []Record) Summary {
	var s Summary
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			s.Present++
		case StatusAbsent:
			s.Absent++
		case StatusLate:
			s.Late++
		case StatusExcused:
			s.Excused++
		default:
			continue
		}
		s.Total++
	}
	if s.Total > 0 {
		s.Rate = float64(s.Present) / float64(s.Total)
		s.IsChronic = s.Rate < p.threshold()
	}
	return s
}

// Band classifies the displayed whole percentage: excellent >= 95%, good >= 85%, fair >= the chronic
// threshold, poor below.
func (p Policy) Band(s Summary) string {
	percent := s.Percent()
	switch {
	case s.Total == 0:
		return BandNoData
	case percent >= excellentPercent:
		return BandExcellent
	case percent >= goodPercent:
		return BandGood
	case float64(percent) >= math.Round(p.threshold()*100):
		return BandFair
	default:
		return BandPoor
	}
}

func (p Policy) threshold() float64 {
	if p.ChronicThreshold <= 0 || p.ChronicThreshold > 1 || math.IsNaN(p.ChronicThreshold) {
		return DefaultChronicThreshold
	}
	return p.ChronicThreshold
}

// StatusOn returns the status of the record dated `day`, or StatusUnmarked.
func StatusOn(records []Record, day time.Time) string {
	day = Day(day)
	for _, r := range records {
		if Day(r.Date).Equal(day) {
			return r.Status
		}
	}
	return StatusUnmarked
}
