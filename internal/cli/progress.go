package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fpang/calm-imagegen/internal/job"
)

// ProgressPrinter returns a job.ProgressFunc that writes one line per poll to w.
// Lines are only written when the status or percentage changes.
func ProgressPrinter(w io.Writer) job.ProgressFunc {
	var (
		lastStatus  job.Status
		lastPercent = -1
	)
	return func(j job.Job, elapsed time.Duration) {
		if j.Status == lastStatus && j.Percentage == lastPercent {
			return
		}
		lastStatus, lastPercent = j.Status, j.Percentage

		status := j.RawStatus
		if status == "" {
			status = j.Status.String()
		}
		fmt.Fprintf(w, "[%s] %s %d%%\n", FormatDurationShort(elapsed), status, j.Percentage)
	}
}
