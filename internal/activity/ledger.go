// Package activity is the append-only audit trail of user actions. Appends are
// best effort: failures are logged and counted, never returned to the caller.
package activity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/PaulBabatuyi/biovault/internal/models"
	"github.com/PaulBabatuyi/biovault/internal/observability"
	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

// MaxQueryLimit caps how many entries Query returns.
const MaxQueryLimit = 50

// EntryStore persists ledger entries.
type EntryStore interface {
	InsertActivity(ctx context.Context, entry models.ActivityEntry) error
	ListActivity(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error)
}

type Config struct {
	// QueueSize is the number of entries buffered for the background writer.
	// Zero writes synchronously inside Append.
	QueueSize    int
	WriteTimeout time.Duration
}

type Ledger struct {
	config  Config
	store   EntryStore
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time

	queue     chan models.ActivityEntry
	startOnce sync.Once
	stopped   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewLedger(config Config, store EntryStore, metrics *observability.Metrics, logger *zap.Logger) *Ledger {
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 5 * time.Second
	}
	l := &Ledger{
		config:  config,
		store:   store,
		metrics: metrics,
		logger:  logger.Named("ledger"),
		now:     time.Now,
		stopped: make(chan struct{}),
	}
	if config.QueueSize > 0 {
		l.queue = make(chan models.ActivityEntry, config.QueueSize)
	}
	return l
}

// Start launches the background writer. It is a no-op in synchronous mode.
func (l *Ledger) Start() {
	if l.queue == nil {
		return
	}
	l.startOnce.Do(func() {
		go l.run()
		l.logger.Info("activity ledger writer started", zap.Int("queue_size", l.config.QueueSize))
	})
}

// Stop refuses further appends and waits for queued entries to be written,
// or for ctx to end.
func (l *Ledger) Stop(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	if l.queue != nil {
		close(l.queue)
	}
	l.mu.Unlock()

	if l.queue == nil {
		return nil
	}
	// never started: drain inline
	l.startOnce.Do(func() { go l.run() })

	select {
	case <-l.stopped:
		l.logger.Info("activity ledger writer stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Append records an action for userID. It never blocks on a full queue and
// never reports failure.
func (l *Ledger) Append(userID string, action models.Action, details string) {
	if userID == "" || !action.Valid() {
		l.logger.Warn("dropping malformed activity entry",
			zap.String("user_id", userID),
			zap.String("action", string(action)),
		)
		return
	}

	entry := models.ActivityEntry{
		UserID:    userID,
		Action:    action,
		Details:   details,
		Timestamp: l.now().UTC(),
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		l.drop(entry, "ledger stopped")
		return
	}
	if l.queue == nil {
		l.write(entry)
		return
	}

	select {
	case l.queue <- entry:
	default:
		l.drop(entry, "ledger queue full")
	}
}

// Query returns the newest entries of userID. limit <= 0 or above
// MaxQueryLimit is clamped to MaxQueryLimit.
func (l *Ledger) Query(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 || limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}
	entries, err := l.store.ListActivity(ctx, userID, limit)
	if err != nil {
		return nil, &vaulterr.CatalogError{Op: "activity query", Err: err}
	}
	return entries, nil
}

func (l *Ledger) run() {
	defer close(l.stopped)
	for entry := range l.queue {
		l.write(entry)
	}
}

func (l *Ledger) write(entry models.ActivityEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), l.config.WriteTimeout)
	defer cancel()

	if err := l.store.InsertActivity(ctx, entry); err != nil {
		l.metrics.LedgerWrites.WithLabelValues("error").Inc()
		l.logger.Error("failed to write activity entry",
			zap.String("user_id", entry.UserID),
			zap.String("action", string(entry.Action)),
			zap.Error(err),
		)
		return
	}
	l.metrics.LedgerWrites.WithLabelValues("ok").Inc()
}

func (l *Ledger) drop(entry models.ActivityEntry, reason string) {
	l.metrics.LedgerDropped.Inc()
	l.logger.Warn("dropping activity entry",
		zap.String("reason", reason),
		zap.String("user_id", entry.UserID),
		zap.String("action", string(entry.Action)),
	)
}
