package pipeline

import (
	"strconv"
	"strings"
	"time"

	"nhkeasy/internal/formatter"
)

// DateStats counts outcomes for one catalog date.
type DateStats struct {
	Date    string
	Listed  int
	New     int
	Skipped int
	Failed  int
}

// Summary reports one run. It is returned for every outcome, including failures.
type Summary struct {
	Start    string
	End      string
	Total    int
	New      int
	Skipped  int
	Failed   int
	Dates    []DateStats
	State    State
	DryRun   bool
	Duration time.Duration
}

func (s *Summary) record(stats *DateStats, outcome Outcome) {
	switch outcome {
	case OutcomeInserted:
		s.New++
		stats.New++
	case OutcomeSkippedDuplicate:
		s.Skipped++
		stats.Skipped++
	case OutcomeSkippedFetchFailure:
		s.Failed++
		stats.Failed++
	}
}

// Report renders the summary and per-date counts as aligned tables.
func (s *Summary) Report() string {
	newLabel := "New articles inserted"
	if s.DryRun {
		newLabel = "New articles (dry run)"
	}

	var sb strings.Builder

	sb.WriteString(formatter.KeyValue("Summary", "Value", [][2]string{
		{"Date range", s.Start + " to " + s.End},
		{"State", s.State.String()},
		{"Dry run", strconv.FormatBool(s.DryRun)},
		{"Total articles processed", strconv.Itoa(s.Total)},
		{newLabel, strconv.Itoa(s.New)},
		{"Skipped (already exist)", strconv.Itoa(s.Skipped)},
		{"Failed to fetch or parse", strconv.Itoa(s.Failed)},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	}))

	if len(s.Dates) > 0 {
		rows := make([][]string, 0, len(s.Dates))
		for _, d := range s.Dates {
			rows = append(rows, []string{
				d.Date,
				strconv.Itoa(d.Listed),
				strconv.Itoa(d.New),
				strconv.Itoa(d.Skipped),
				strconv.Itoa(d.Failed),
			})
		}

		sb.WriteString("\n\n")
		sb.WriteString(formatter.Table([]string{"Date", "Listed", "New", "Skipped", "Failed"}, rows))
	}

	sb.WriteString("\n")

	return sb.String()
}
