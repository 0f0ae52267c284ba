package pipeline

// State is the lifecycle position of one run.
type State int

// Run states, in the order a successful run passes through them.
const (
	StateIdle State = iota
	StateAuthenticating
	StateListing
	StateFetching
	StateCommitting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAuthenticating:
		return "authenticating"
	case StateListing:
		return "listing"
	case StateFetching:
		return "fetching"
	case StateCommitting:
		return "committing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is what happened to a single catalog article.
type Outcome int

// Per-article outcomes. None of them fails the run.
const (
	OutcomeInserted Outcome = iota
	OutcomeSkippedDuplicate
	OutcomeSkippedFetchFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeSkippedDuplicate:
		return "skipped_duplicate"
	case OutcomeSkippedFetchFailure:
		return "skipped_fetch_failure"
	default:
		return "unknown"
	}
}
