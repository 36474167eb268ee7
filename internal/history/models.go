package history

import "time"

// Status represents the lifecycle of a pipeline run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one pipeline execution persisted in SQLite.
type Run struct {
	ID         string
	Status     Status
	CreatedAt  time.Time
	FinishedAt *time.Time
	TopicCount int
	Script     string
	AudioPath  string
	ImagePath  string
	VideoPath  string
	ErrorKind  string
	ErrorMsg   string
}

// Duration returns the wall-clock time of a finished run, zero otherwise.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.CreatedAt)
}

// Summary describes aggregated run counts per lifecycle state.
type Summary struct {
	Total     int
	Running   int
	Completed int
	Failed    int
}
