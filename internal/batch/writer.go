package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

const (
	// DefaultBulkSize is the number of docs buffered before an automatic flush.
	DefaultBulkSize = 10

	dataExt = ".json"
	lockExt = ".lock"
)

// ErrClosed is returned by Append once the writer has been closed.
var ErrClosed = errors.New("batch writer closed")

// Store persists files into the output directory.
type Store interface {
	Touch(ctx context.Context, name string) error
	PutObject(ctx context.Context, name string, data []byte) (string, error)
	Remove(ctx context.Context, name string) error
}

// IDGenerator produces unique batch file stems.
type IDGenerator interface {
	NewID() (string, error)
}

// Observer receives flush statistics. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveBatch(docs int, bytes int)
	ObserveFlushError()
}

// Config controls buffering.
type Config struct {
	BulkSize int
	Observer Observer
	Logger   *zap.Logger
}

// Writer accumulates docs and writes them out in batches. Swap and
// serialization happen under one mutex so a flush triggered at shutdown
// never races a flush triggered by Append.
type Writer struct {
	store    Store
	ids      IDGenerator
	bulkSize int
	observer Observer
	logger   *zap.Logger

	mu     sync.Mutex
	buf    []Doc
	closed bool
}

// NewWriter builds a Writer on top of store.
func NewWriter(store Store, ids IDGenerator, cfg Config) *Writer {
	if cfg.BulkSize <= 0 {
		cfg.BulkSize = DefaultBulkSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		store:    store,
		ids:      ids,
		bulkSize: cfg.BulkSize,
		observer: cfg.Observer,
		logger:   logger,
		buf:      make([]Doc, 0, cfg.BulkSize),
	}
}

// Append buffers doc and flushes when the buffer reaches the bulk size. The
// doc is accepted even when the resulting flush fails.
func (w *Writer) Append(ctx context.Context, doc Doc) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.buf = append(w.buf, doc)
	if len(w.buf) < w.bulkSize {
		return nil
	}
	return w.flushLocked(ctx)
}

// Flush writes any buffered docs. It is a no-op when nothing is buffered.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked(ctx)
}

// Close flushes the remaining docs and rejects further appends. Calling Close
// more than once is safe.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return w.flushLocked(ctx)
}

// Buffered reports how many docs are waiting for the next flush.
func (w *Writer) Buffered() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buf)
}

func (w *Writer) flushLocked(ctx context.Context) error {
	if len(w.buf) == 0 {
		return nil
	}
	docs := w.buf
	w.buf = make([]Doc, 0, w.bulkSize)

	if err := w.commit(ctx, docs); err != nil {
		if w.observer != nil {
			w.observer.ObserveFlushError()
		}
		return err
	}
	return nil
}

func (w *Writer) commit(ctx context.Context, docs []Doc) error {
	payload, err := json.Marshal(File{Docs: docs})
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}
	id, err := w.ids.NewID()
	if err != nil {
		return fmt.Errorf("batch id: %w", err)
	}
	lockName, dataName := id+lockExt, id+dataExt

	if err := w.store.Touch(ctx, lockName); err != nil {
		return fmt.Errorf("create lock %s: %w", lockName, err)
	}
	// A failed write leaves the lock in place so the partial payload is
	// never ingested.
	uri, err := w.store.PutObject(ctx, dataName, payload)
	if err != nil {
		return fmt.Errorf("write batch %s: %w", dataName, err)
	}
	if err := w.store.Remove(ctx, lockName); err != nil {
		return fmt.Errorf("remove lock %s: %w", lockName, err)
	}

	if w.observer != nil {
		w.observer.ObserveBatch(len(docs), len(payload))
	}
	w.logger.Debug("batch written",
		zap.String("uri", uri),
		zap.Int("docs", len(docs)),
		zap.Int("bytes", len(payload)),
	)
	return nil
}
