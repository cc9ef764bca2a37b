package rebalancing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/menabung/rebalancer/internal/domain"
	"github.com/menabung/rebalancer/internal/metrics"
)

const (
	DismissedSuggestionsKey = "rebalance:dismissed_suggestions"
	HistoryKey              = "rebalance:history"

	MaxDismissedSuggestions = 50
	MaxHistoryEntries       = 20

	// DefaultNotifyCooldown is the minimum gap between two rebalance notifications.
	DefaultNotifyCooldown = 4 * time.Hour
	// minNotifyGain is the smallest APY gain, in points, worth a notification.
	minNotifyGain = 0.5
)

// Lifecycle persists dismissed suggestion ids and executed rebalances.
// Reads fail open: a store error reads as "nothing dismissed" or "no history".
// Writes are serialized so concurrent read-modify-write cycles do not lose entries.
type Lifecycle struct {
	mu      sync.Mutex
	store   domain.KeyValueStore
	metrics *metrics.Recorder
	log     zerolog.Logger
}

// NewLifecycle creates a lifecycle over store.
func NewLifecycle(store domain.KeyValueStore, m *metrics.Recorder, log zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		store:   store,
		metrics: m,
		log:     log.With().Str("service", "rebalance_lifecycle").Logger(),
	}
}

// Dismiss records id as dismissed. Dismissing an id twice is a no-op.
func (l *Lifecycle) Dismiss(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids, err := l.loadDismissed(ctx)
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}

	ids = append(ids, id)
	if len(ids) > MaxDismissedSuggestions {
		ids = ids[len(ids)-MaxDismissedSuggestions:]
	}
	if err := l.save(ctx, DismissedSuggestionsKey, ids); err != nil {
		return err
	}
	l.metrics.RecordDismissal()
	return nil
}

// DismissedIDs returns the dismissed set, oldest first.
func (l *Lifecycle) DismissedIDs(ctx context.Context) []string {
	ids, err := l.loadDismissed(ctx)
	if err != nil {
		l.log.Warn().Err(err).Msg("Failed to read dismissed suggestions, treating as empty")
		return []string{}
	}
	return ids
}

// FilterDismissed drops suggestions whose id has been dismissed.
func (l *Lifecycle) FilterDismissed(ctx context.Context, suggestions []RebalanceSuggestion) []RebalanceSuggestion {
	dismissed := make(map[string]struct{})
	for _, id := range l.DismissedIDs(ctx) {
		dismissed[id] = struct{}{}
	}

	kept := make([]RebalanceSuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if _, ok := dismissed[s.ID]; !ok {
			kept = append(kept, s)
		}
	}
	return kept
}

// SaveHistory appends an executed rebalance, keeping the most recent entries.
func (l *Lifecycle) SaveHistory(ctx context.Context, entry RebalanceHistory) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	histories, err := l.loadHistory(ctx)
	if err != nil {
		return err
	}

	histories = append(histories, entry)
	if len(histories) > MaxHistoryEntries {
		histories = histories[len(histories)-MaxHistoryEntries:]
	}
	return l.save(ctx, HistoryKey, histories)
}

// History returns saved rebalances, oldest first.
func (l *Lifecycle) History(ctx context.Context) []RebalanceHistory {
	histories, err := l.loadHistory(ctx)
	if err != nil {
		l.log.Warn().Err(err).Msg("Failed to read rebalance history, treating as empty")
		return []RebalanceHistory{}
	}
	return histories
}

// LastExecutedAt returns when the newest history entry started, if any.
func (l *Lifecycle) LastExecutedAt(ctx context.Context) *time.Time {
	histories := l.History(ctx)
	if len(histories) == 0 {
		return nil
	}
	t := time.UnixMilli(histories[len(histories)-1].Execution.StartedAt)
	return &t
}

func (l *Lifecycle) loadDismissed(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := l.load(ctx, DismissedSuggestionsKey, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (l *Lifecycle) loadHistory(ctx context.Context) ([]RebalanceHistory, error) {
	histories := []RebalanceHistory{}
	if err := l.load(ctx, HistoryKey, &histories); err != nil {
		return nil, err
	}
	return histories, nil
}

func (l *Lifecycle) load(ctx context.Context, key string, out any) error {
	raw, ok, err := l.store.Get(ctx, key)
	if err != nil {
		l.metrics.RecordStoreError("get")
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := msgpack.Unmarshal(raw, out); err != nil {
		l.metrics.RecordStoreError("decode")
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (l *Lifecycle) save(ctx context.Context, key string, v any) error {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := l.store.Set(ctx, key, raw); err != nil {
		l.metrics.RecordStoreError("set")
		l.log.Error().Err(err).Str("key", key).Msg("Failed to write to store")
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// ShouldNotifyUser reports whether an analysis deserves a notification,
// respecting a cooldown since the last one. last may be nil.
func ShouldNotifyUser(a RebalanceAnalysis, last *time.Time, cooldown time.Duration, now time.Time) bool {
	if !a.ShouldRebalance {
		return false
	}
	if a.APYGain < minNotifyGain {
		return false
	}
	if last != nil && !last.IsZero() && now.Sub(*last) < cooldown {
		return false
	}
	return true
}
