package scores

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/carom/internal/game"
	"github.com/playmatatu/carom/internal/models"
	"github.com/redis/go-redis/v9"
)

// EventsChannel is the redis pub/sub channel carrying table events.
const EventsChannel = "table_events"

// DefaultSnapshotTTL is used when the store is created with a zero TTL.
const DefaultSnapshotTTL = time.Hour

// StateKey returns the redis key of a table's last snapshot.
func StateKey(tableID string) string {
	return fmt.Sprintf("table:%s:state", tableID)
}

// Store keeps the running score of each table in Postgres and the latest
// table snapshot in Redis. Either backend may be nil.
type Store struct {
	db          *sqlx.DB
	rdb         *redis.Client
	snapshotTTL time.Duration
}

// NewStore creates a store over the given backends.
func NewStore(db *sqlx.DB, rdb *redis.Client, snapshotTTL time.Duration) *Store {
	if snapshotTTL <= 0 {
		snapshotTTL = DefaultSnapshotTTL
	}
	return &Store{db: db, rdb: rdb, snapshotTTL: snapshotTTL}
}

// LoadScore returns the stored score of a table. Postgres is authoritative;
// the redis snapshot is consulted when there is no row (or no database).
// An unknown table scores 0.
func (s *Store) LoadScore(ctx context.Context, tableID string) (int, error) {
	if s.db != nil {
		var row models.TableScore
		err := s.db.GetContext(ctx, &row, `SELECT table_id, score, updated_at FROM table_scores WHERE table_id=$1`, tableID)
		if err == nil {
			return row.Score, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("load score for %s: %w", tableID, err)
		}
	}

	snap, err := s.LoadSnapshot(ctx, tableID)
	if err != nil {
		return 0, err
	}
	if snap == nil {
		return 0, nil
	}
	return snap.Score, nil
}

// SaveScore records the running score. The stored value never decreases, so
// a late write of an older score is harmless.
func (s *Store) SaveScore(ctx context.Context, tableID string, score int) error {
	if s.db == nil {
		return nil
	}
	if score < 0 {
		score = 0
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO table_scores (table_id, score, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (table_id) DO UPDATE SET
			score = GREATEST(table_scores.score, EXCLUDED.score),
			updated_at = NOW()
	`, tableID, score)
	if err != nil {
		return fmt.Errorf("save score for %s: %w", tableID, err)
	}
	return nil
}

// SaveSnapshot caches the table state in redis.
func (s *Store) SaveSnapshot(ctx context.Context, snap game.TableSnapshot) error {
	if s.rdb == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, StateKey(snap.TableID), data, s.snapshotTTL).Err(); err != nil {
		return fmt.Errorf("save snapshot for %s: %w", snap.TableID, err)
	}
	return nil
}

// LoadSnapshot returns the cached table state, or nil if there is none.
func (s *Store) LoadSnapshot(ctx context.Context, tableID string) (*game.TableSnapshot, error) {
	if s.rdb == nil {
		return nil, nil
	}
	data, err := s.rdb.Get(ctx, StateKey(tableID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot for %s: %w", tableID, err)
	}
	var snap game.TableSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("[SCORES] discarding corrupt snapshot for %s: %v", tableID, err)
		return nil, nil
	}
	return &snap, nil
}

// Publish sends a table event to every server instance subscribed to
// EventsChannel.
func (s *Store) Publish(ctx context.Context, ev game.TableEvent) error {
	if s.rdb == nil {
		return nil
	}
	data, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, EventsChannel, data).Err()
}

// Leaderboard returns the highest stored scores, best first.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]models.TableScore, error) {
	if s.db == nil {
		return []models.TableScore{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows := []models.TableScore{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT table_id, score, updated_at
		FROM table_scores
		ORDER BY score DESC, updated_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	return rows, nil
}

// EncodeEvent is the wire form of a table event on EventsChannel.
func EncodeEvent(ev game.TableEvent) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal table event: %w", err)
	}
	return data, nil
}

// DecodeEvent parses a payload received from EventsChannel.
func DecodeEvent(payload []byte) (game.TableEvent, error) {
	var ev game.TableEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ev, fmt.Errorf("unmarshal table event: %w", err)
	}
	if ev.TableID == "" || ev.Type == "" {
		return ev, errors.New("table event missing table_id or type")
	}
	return ev, nil
}

var (
	_ game.ScoreStore = (*Store)(nil)
	_ game.EventSink  = (*Store)(nil)
)
