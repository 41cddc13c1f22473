package scraper

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/scraper-node/internal/batch"
	"github.com/JakeFAU/scraper-node/internal/config"
	"github.com/JakeFAU/scraper-node/internal/id/uuid"
	"github.com/JakeFAU/scraper-node/internal/jobfile"
	"github.com/JakeFAU/scraper-node/internal/logging"
	"github.com/JakeFAU/scraper-node/internal/metrics"
	"github.com/JakeFAU/scraper-node/internal/quota"
	"github.com/JakeFAU/scraper-node/internal/storage/local"
	"github.com/JakeFAU/scraper-node/internal/watcher"
)

// State is the lifecycle position of a Job.
type State int32

// Job states.
const (
	StateUninitialized State = iota
	StateActive
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Job is the active collection handle passed to RunFunc.
type Job struct {
	cfg     jobfile.Config
	writer  *batch.Writer
	guard   *quota.Guard
	metrics *metrics.Recorder
	logger  *zap.Logger // runtime messages
	user    *zap.Logger // handed to business logic
	state   atomic.Int32
	base    context.Context
}

// URL returns the job's target URL.
func (j *Job) URL() string { return j.cfg.URL }

// Parameters returns a copy of the decoded job parameters.
func (j *Job) Parameters() map[string]string {
	out := make(map[string]string, len(j.cfg.Params))
	for k, v := range j.cfg.Params {
		out[k] = v
	}
	return out
}

// Proxy returns the configured proxy. ok is false when none is configured or
// its scheme id is unknown.
func (j *Job) Proxy() (Proxy, bool) {
	return resolveProxy(j.cfg.Proxy)
}

// Logger returns a logger writing to the run's log file.
func (j *Job) Logger() *zap.Logger { return j.user }

// State reports the lifecycle state.
func (j *Job) State() State { return State(j.state.Load()) }

// Add stores one record. It returns ErrQuotaExceeded once the record quota is
// used up: the record that uses the last slot is kept and still reports the
// error, and any later record is dropped. Callers stop collecting on it.
func (j *Job) Add(rec Record) error {
	if err := j.guard.Reserve(); err != nil {
		j.metrics.ObserveRejected()
		return err
	}
	doc := batch.NewDoc(rec.URL, rec.Title, rec.payload(), rec.Columns)
	if err := j.writer.Append(j.base, doc); err != nil {
		if errors.Is(err, batch.ErrClosed) {
			return err
		}
		return fmt.Errorf("add record: %w", err)
	}
	j.metrics.ObserveRecord(rec.URL)
	if j.guard.Exhausted() {
		return ErrQuotaExceeded
	}
	return nil
}

// Flush writes buffered records now instead of waiting for a full batch.
func (j *Job) Flush() error {
	if err := j.writer.Flush(j.base); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func (n *Node) runJob(ctx context.Context, cfg jobfile.Config, s config.Settings, run RunFunc) (Outcome, error) {
	name := n.name()
	ids := uuid.New()
	suffix, err := ids.NewHex()
	if err != nil {
		return Outcome{}, err
	}
	flog, err := logging.NewFileLogger(cfg.LogFolder, name, suffix, cfg.DebugMode)
	if err != nil {
		return Outcome{}, err
	}
	defer func() { _ = flog.Close() }()
	logger := flog.Logger

	store, err := local.New(local.Config{BaseDir: cfg.OutputFolder})
	if err != nil {
		logger.Error("Output folder unusable", zap.String("path", cfg.OutputFolder), zap.Error(err))
		return Outcome{}, fmt.Errorf("output folder: %w", err)
	}

	bulk := n.BulkSize
	if s.BulkSize > 0 {
		bulk = s.BulkSize
	}
	rec := metrics.New(name)
	job := &Job{
		cfg:     cfg,
		guard:   quota.NewGuard(cfg.MaximumRows),
		metrics: rec,
		logger:  logger,
		user:    logger.Named(name),
		base:    context.WithoutCancel(ctx),
		writer: batch.NewWriter(store, ids, batch.Config{
			BulkSize: bulk,
			Observer: rec,
			Logger:   logger,
		}),
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	w := watcher.Start(runCtx, watcher.Config{
		Path:     filepath.Join(cfg.OutputFolder, s.StopFile),
		Interval: s.PollInterval,
		Logger:   logger,
	}, func() { cancel(ErrCancelled) })

	job.state.Store(int32(StateActive))
	logger.Debug("Scraper started",
		zap.String("url", cfg.URL),
		zap.Int("bulk_size", bulk),
		zap.String("output_folder", cfg.OutputFolder),
	)

	runErr := job.invoke(runCtx, run, s.CancelGrace)
	w.Stop()
	outcome := job.terminate(runCtx, runErr)

	rec.ObserveTermination(outcome.Reason.String())
	if err := rec.WriteTextfile(s.MetricsTextfile); err != nil {
		logger.Warn("Metrics export failed", zap.Error(err))
	}
	return outcome, nil
}

// invoke runs business logic on its own goroutine so a call that ignores ctx
// cannot hold the process past cancellation. After ctx is done the call gets
// grace to return; then it is abandoned and the writer is closed under it.
func (j *Job) invoke(ctx context.Context, run RunFunc, grace time.Duration) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		done <- run(ctx, j)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		j.logger.Warn("Business logic ignored cancellation; abandoning it", zap.Duration("grace", grace))
		return context.Cause(ctx)
	}
}

// terminate flushes what is buffered and classifies the exit.
func (j *Job) terminate(runCtx context.Context, runErr error) Outcome {
	flushErr := j.writer.Close(j.base)
	j.state.Store(int32(StateTerminated))

	outcome := classify(runCtx, runErr)
	if flushErr != nil {
		flushErr = fmt.Errorf("final flush: %w", flushErr)
		if outcome.Reason == ReasonFailed {
			outcome.Err = errors.Join(outcome.Err, flushErr)
		} else {
			outcome = Outcome{Reason: ReasonFailed, Err: flushErr}
		}
	}

	switch outcome.Reason {
	case ReasonCancelled:
		j.logger.Warn("User aborted execution", zap.NamedError("cause", outcome.Err))
	case ReasonQuotaExceeded:
		limit, _ := j.guard.Limit()
		j.logger.Warn(fmt.Sprintf("The scraper exceeded the rows limit: %d", limit))
	case ReasonFailed:
		fields := []zap.Field{zap.Error(outcome.Err)}
		var perr *PanicError
		if errors.As(outcome.Err, &perr) {
			fields = append(fields, zap.ByteString("panic_stack", perr.Stack))
		}
		j.logger.Error("The scraper ended with an error", fields...)
	default:
		j.logger.Info("The scraper finished")
	}
	return outcome
}

func classify(runCtx context.Context, runErr error) Outcome {
	if errors.Is(runErr, quota.ErrExceeded) {
		return Outcome{Reason: ReasonQuotaExceeded, Err: runErr}
	}
	if runCtx.Err() != nil {
		cause := context.Cause(runCtx)
		if runErr == nil || errors.Is(runErr, context.Canceled) || errors.Is(runErr, cause) {
			return Outcome{Reason: ReasonCancelled, Err: cause}
		}
	}
	if runErr != nil {
		return Outcome{Reason: ReasonFailed, Err: runErr}
	}
	return Outcome{Reason: ReasonCompleted}
}
