package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sync"
	"time"

	"github.com/playmatatu/carom/internal/config"
)

// ScoreStore persists the running score of each table.
type ScoreStore interface {
	LoadScore(ctx context.Context, tableID string) (int, error)
	SaveScore(ctx context.Context, tableID string, score int) error
	SaveSnapshot(ctx context.Context, snap TableSnapshot) error
}

// EventSink receives table events after they happen.
type EventSink interface {
	Publish(ctx context.Context, ev TableEvent) error
}

// WorldFactory builds a fresh physics world for a new table.
type WorldFactory func() World

var ErrInvalidTableID = errors.New("invalid table id")

var tableIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidTableID reports whether id can name a table.
func ValidTableID(id string) bool {
	return tableIDPattern.MatchString(id)
}

// TableManager owns all running tables.
type TableManager struct {
	mu       sync.RWMutex
	tables   map[string]*Table
	newWorld WorldFactory
	store    ScoreStore
	sinks    []EventSink
	retired  map[string]int // last score of reaped tables
	session  SessionConfig
	interval time.Duration
	ctx      context.Context
}

// Manager is the process-wide table manager.
var Manager *TableManager

// InitializeManager creates the global manager. Tables started by it stop
// when ctx is cancelled.
func InitializeManager(ctx context.Context, cfg *config.Config, newWorld WorldFactory, store ScoreStore, sinks ...EventSink) *TableManager {
	Manager = NewTableManager(ctx, cfg, newWorld, store, sinks...)
	return Manager
}

// NewTableManager creates a manager. store may be nil to keep scores in memory only.
func NewTableManager(ctx context.Context, cfg *config.Config, newWorld WorldFactory, store ScoreStore, sinks ...EventSink) *TableManager {
	return &TableManager{
		tables:   make(map[string]*Table),
		retired:  make(map[string]int),
		newWorld: newWorld,
		store:    store,
		sinks:    sinks,
		session:  SessionConfigFromConfig(cfg),
		interval: cfg.TickInterval(),
		ctx:      ctx,
	}
}

// SessionConfigFromConfig maps environment tuning onto the core.
func SessionConfigFromConfig(cfg *config.Config) SessionConfig {
	sc := DefaultSessionConfig()
	if cfg == nil {
		return sc
	}
	if cfg.RestSpeedThreshold > 0 {
		sc.RestSpeed = cfg.RestSpeedThreshold
	}
	if cfg.TipRadius > 0 {
		sc.Strike.TipRadius = cfg.TipRadius
	}
	if cfg.BallRadius > 0 {
		sc.Strike.BallRadius = cfg.BallRadius
	}
	if cfg.ContactEpsilon > 0 {
		sc.Strike.ContactEpsilon = cfg.ContactEpsilon
	}
	if cfg.MinStrikeSpeed >= 0 {
		sc.Strike.MinStrikeSpeed = cfg.MinStrikeSpeed
	}
	if cfg.ImpulseGain > 0 {
		sc.Strike.ImpulseGain = cfg.ImpulseGain
	}
	if cfg.HapticIntensity > 0 {
		sc.Strike.HapticIntensity = cfg.HapticIntensity
	}
	if cfg.HapticDuration > 0 {
		sc.Strike.HapticDuration = cfg.HapticDuration
	}
	return sc
}

// GetTable returns a running table.
func (m *TableManager) GetTable(id string) (*Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	return t, ok
}

// RetiredScore returns the score a table had when it was last reaped.
func (m *TableManager) RetiredScore(id string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	score, ok := m.retired[id]
	return score, ok
}

// acquire returns a running table and marks it active. The manager lock
// is held while touching so ReapIdle cannot remove it in between.
func (m *TableManager) acquire(id string) (*Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	if ok {
		t.touch()
	}
	return t, ok
}

// GetOrCreateTable returns the table with id, starting it (and restoring
// its score from the store) if it is not running yet. A table that cannot
// restore its score is not started.
func (m *TableManager) GetOrCreateTable(ctx context.Context, id string) (*Table, error) {
	if !ValidTableID(id) {
		return nil, ErrInvalidTableID
	}
	if t, ok := m.acquire(id); ok {
		return t, nil
	}

	initial := 0
	if m.store != nil {
		score, err := m.store.LoadScore(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load score for table %s: %w", id, err)
		}
		initial = score
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tables[id]; ok {
		t.touch()
		return t, nil
	}
	if score, ok := m.retired[id]; ok {
		if score > initial {
			initial = score
		}
		delete(m.retired, id)
	}

	sinks := append([]EventSink(nil), m.sinks...)
	t := newTable(id, m.newWorld(), NewLedger(initial), m.session, m.store, sinks)
	tctx, cancel := context.WithCancel(m.ctx)
	t.cancel = cancel
	m.tables[id] = t
	go t.Run(tctx, m.interval)

	log.Printf("[TABLE] %s created (score=%d)", id, initial)
	return t, nil
}

// Tables returns the ids of running tables.
func (m *TableManager) Tables() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.tables))
	for id := range m.tables {
		ids = append(ids, id)
	}
	return ids
}

// ReapIdle stops tables with no shot in progress, no tracked cue and no
// activity for idleFor. inUse may veto removal of a table, e.g. one that
// still has connected clients. A reaped table's score is kept and restored
// if the table is opened again. It returns the removed ids.
func (m *TableManager) ReapIdle(now time.Time, idleFor time.Duration, inUse func(id string) bool) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []string
	for id, t := range m.tables {
		if now.Sub(t.LastActive()) < idleFor {
			continue
		}
		snap := t.Snapshot()
		if snap.ShotActive || snap.Tracked {
			continue
		}
		if inUse != nil && inUse(id) {
			continue
		}
		if now.Sub(t.LastActive()) < idleFor {
			continue
		}
		t.Stop()
		m.retired[id] = t.Score()
		delete(m.tables, id)
		removed = append(removed, id)
	}
	return removed
}
