package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/menabung/rebalancer/internal/modules/yields"
)

// SnapshotRepository records refreshed yield snapshots in yield_snapshots.
type SnapshotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSnapshotRepository wraps a migrated store database.
func NewSnapshotRepository(db *sql.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  db,
		log: log.With().Str("repository", "yield_snapshots").Logger(),
	}
}

// Record appends a snapshot.
func (r *SnapshotRepository) Record(ctx context.Context, snap yields.YieldSnapshot) error {
	y := snap.Yields
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO yield_snapshots (
			taken_at, thetanuts_apy, aerodrome_apy, staking_apy,
			thetanuts_source, aerodrome_source, staking_source
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, snap.Timestamp, y.Thetanuts.APY, y.Aerodrome.APY, y.Staking.APY,
		string(y.Thetanuts.Source), string(y.Aerodrome.Source), string(y.Staking.Source))
	if err != nil {
		return fmt.Errorf("failed to record yield snapshot: %w", err)
	}
	return nil
}

// Recent returns up to limit snapshots, newest first.
func (r *SnapshotRepository) Recent(ctx context.Context, limit int) ([]yields.YieldSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT taken_at, thetanuts_apy, aerodrome_apy, staking_apy,
			thetanuts_source, aerodrome_source, staking_source
		FROM yield_snapshots
		ORDER BY taken_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query yield snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []yields.YieldSnapshot{}
	for rows.Next() {
		var (
			snap             yields.YieldSnapshot
			tSrc, aSrc, sSrc string
		)
		if err := rows.Scan(
			&snap.Timestamp,
			&snap.Yields.Thetanuts.APY, &snap.Yields.Aerodrome.APY, &snap.Yields.Staking.APY,
			&tSrc, &aSrc, &sSrc,
		); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan yield snapshot row")
			continue
		}
		snap.Yields.Thetanuts.Source = yields.Source(tSrc)
		snap.Yields.Aerodrome.Source = yields.Source(aSrc)
		snap.Yields.Staking.Source = yields.Source(sSrc)
		snap.Yields.Thetanuts.Timestamp = snap.Timestamp
		snap.Yields.Aerodrome.Timestamp = snap.Timestamp
		snap.Yields.Staking.Timestamp = snap.Timestamp
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate yield snapshots: %w", err)
	}
	return snaps, nil
}

// Prune deletes snapshots taken before cutoff and returns how many went.
func (r *SnapshotRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM yield_snapshots WHERE taken_at < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune yield snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.log.Debug().Int64("deleted", n).Msg("Pruned yield snapshots")
	}
	return n, nil
}
