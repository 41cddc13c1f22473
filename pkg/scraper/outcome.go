package scraper

import (
	"errors"
	"fmt"

	"github.com/JakeFAU/scraper-node/internal/batch"
	"github.com/JakeFAU/scraper-node/internal/quota"
)

var (
	// ErrQuotaExceeded is returned by Job.Add when the row quota is used up.
	// Returning it from RunFunc ends the job successfully.
	ErrQuotaExceeded = quota.ErrExceeded
	// ErrCancelled is the cancellation cause when the orchestrator drops the
	// STOP sentinel into the output folder.
	ErrCancelled = errors.New("cancelled by orchestrator")
	// ErrClosed is returned by Job.Add once the job has terminated.
	ErrClosed = batch.ErrClosed
)

// Reason tags how a job terminated.
type Reason int

// Termination reasons.
const (
	ReasonCompleted Reason = iota
	ReasonCancelled
	ReasonQuotaExceeded
	ReasonFailed
)

// String returns the reason tag.
func (r Reason) String() string {
	switch r {
	case ReasonCompleted:
		return "completed"
	case ReasonCancelled:
		return "cancelled"
	case ReasonQuotaExceeded:
		return "quota_exceeded"
	case ReasonFailed:
		return "failed"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Expected reports whether the job ended without a fault.
func (r Reason) Expected() bool {
	return r != ReasonFailed
}

// Outcome is the classified result of a job.
type Outcome struct {
	Reason Reason
	// Err is the fault for ReasonFailed and the stop cause for
	// ReasonCancelled and ReasonQuotaExceeded.
	Err error
}

// ExitCode maps the outcome to a process exit status.
func (o Outcome) ExitCode() int {
	if o.Reason.Expected() {
		return 0
	}
	return 1
}

// PanicError wraps a panic raised by business logic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
