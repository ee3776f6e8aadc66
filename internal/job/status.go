package job

import (
	"strings"

	"github.com/fpang/calm-imagegen/internal/apiframe"
)

// Status is the lifecycle position of a remote job.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further transitions can occur.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusRunning:
		return 1
	}
	return 2
}

// ParseStatus maps a gateway status string onto a Status. Anything the
// gateway reports that is neither queued nor terminal counts as running.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "completed", "finished", "succeeded", "success", "done":
		return StatusSucceeded
	case "failed", "error", "cancelled", "canceled":
		return StatusFailed
	case "", "pending", "queued", "submitted", "staged", "waiting":
		return StatusPending
	}
	return StatusRunning
}

// Job is one remote generation, owned by a single Run.
type Job struct {
	ID         string
	Status     Status
	RawStatus  string
	Percentage int
	ImageURLs  []string
	Message    string
}

// advance moves the job forward. Backward or sideways transitions and any
// change after a terminal status are ignored.
func (j *Job) advance(next Status) bool {
	if j.Status.Terminal() || next.rank() <= j.Status.rank() {
		return false
	}
	j.Status = next
	return true
}

// apply folds a fetch response into the job and reports whether the status changed.
func (j *Job) apply(resp apiframe.FetchResponse) bool {
	if j.Status.Terminal() {
		return false
	}

	changed := j.advance(ParseStatus(resp.Status))
	j.RawStatus = resp.Status
	if p := int(resp.Percentage); p > j.Percentage {
		j.Percentage = p
	}

	switch j.Status {
	case StatusSucceeded:
		j.ImageURLs = resp.ResultURLs()
		j.Percentage = 100
	case StatusFailed:
		j.Message = resp.Reason()
	}
	return changed
}
