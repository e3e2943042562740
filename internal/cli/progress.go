package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/tdquery/tdquery-go/internal/td"
)

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// waitIndicator reports job polling on stderr.
// On a terminal one line is redrawn in place; otherwise each poll prints "waiting...".
type waitIndicator struct {
	out       io.Writer
	styler    *Styler
	live      bool
	startTime time.Time
	frame     int
	drawn     bool
}

func newWaitIndicator(out io.Writer, styler *Styler) *waitIndicator {
	return &waitIndicator{
		out:       out,
		styler:    styler,
		live:      styler.Enabled(),
		startTime: time.Now(),
	}
}

// Poll is called after every status check that found the job unfinished.
func (w *waitIndicator) Poll(job *td.Job) {
	if !w.live {
		w.styler.Printf(StyleWaiting, "waiting...")
		return
	}

	fmt.Fprint(w.out, "\r\033[K") // Clear line
	fmt.Fprint(w.out, w.styler.Sprintf(StyleWaiting, "%s waiting... job %s %s (%v)",
		spinner[w.frame%len(spinner)], job.ID, job.Status, w.elapsed()))
	w.frame++
	w.drawn = true
}

// Done clears the live line and prints the final job status.
func (w *waitIndicator) Done(job *td.Job) {
	if w.drawn {
		fmt.Fprint(w.out, "\r\033[K")
	}

	style := StyleSuccess
	if !job.Succeeded() {
		style = StyleError
	}
	w.styler.Printf(style, "Job %s finished with status %s in %v", job.ID, job.Status, w.elapsed())
}

// Abort clears the live line without a status message.
func (w *waitIndicator) Abort() {
	if w.drawn {
		fmt.Fprint(w.out, "\r\033[K")
		w.drawn = false
	}
}

func (w *waitIndicator) elapsed() time.Duration {
	return time.Since(w.startTime).Round(time.Second)
}

func fmtNum(n int64) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
	if n >= 1000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%d", n)
}
