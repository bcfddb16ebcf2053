package game

import (
	"context"
	"log"
	"sync"
	"time"
)

// TableEvent is a shot event tagged with the table it happened on, as
// published to storage and spectators.
type TableEvent struct {
	TableID string    `json:"table_id"`
	Type    EventType `json:"type"`
	Ball    *BallID   `json:"ball,omitempty"`
	Shot    Shot      `json:"shot"`
	Score   int       `json:"score"`
	At      time.Time `json:"at"`
}

// TableSnapshot is the externally visible state of a table.
type TableSnapshot struct {
	TableID    string         `json:"table_id"`
	Score      int            `json:"score"`
	ShotActive bool           `json:"shot_active"`
	Shot       Shot           `json:"shot"`
	Balls      [NumBalls]Ball `json:"balls"`
	Tracked    bool           `json:"tracked"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Table hosts one session and drives it from its own loop goroutine.
// Poses and commands arrive from other goroutines and are handed to the
// session at the next tick.
type Table struct {
	ID string

	mu       sync.RWMutex
	session  *Session
	lastTick time.Time

	poseMu sync.Mutex
	pose   *TipPose
	fresh  bool
	timed  bool // the last pose carried its own timestamp
	// resync drops the detector's previous sample before the next pose,
	// after tracking was lost or the pose clock changed.
	resync bool

	// clock is the table's simulated time. It stamps samples that arrive
	// without a timestamp.
	clock time.Time

	events chan TableEvent
	sinks  []EventSink
	store  ScoreStore

	activeMu   sync.Mutex
	lastActive time.Time
	cancel     context.CancelFunc
}

func newTable(id string, world World, ledger *Ledger, cfg SessionConfig, store ScoreStore, sinks []EventSink) *Table {
	t := &Table{
		ID:     id,
		events: make(chan TableEvent, 256),
		sinks:  sinks,
		store:  store,
		clock:  time.Unix(0, 0),
	}
	listener := Listeners{LogListener{TableID: id}, ListenerFunc(t.onShotEvent)}
	t.session = NewSession(world, ledger, cfg, listener, nil)
	t.touch()
	return t
}

func (t *Table) touch() {
	t.activeMu.Lock()
	t.lastActive = time.Now()
	t.activeMu.Unlock()
}

// LastActive is the time of the last pose, rack or shot event.
func (t *Table) LastActive() time.Time {
	t.activeMu.Lock()
	defer t.activeMu.Unlock()
	return t.lastActive
}

// Stop ends the table loop if it was started by a manager.
func (t *Table) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
}

// SubmitPose records the latest tracked tip pose. Only the most recent pose
// before a tick is used, and each pose is sampled by at most one tick.
func (t *Table) SubmitPose(p TipPose) {
	t.poseMu.Lock()
	timed := !p.Time.IsZero()
	if t.pose != nil && timed != t.timed {
		t.resync = true
	}
	t.timed = timed
	if !timed {
		p.Time = t.clock
	}
	t.pose = &p
	t.fresh = true
	t.poseMu.Unlock()
	t.touch()
}

// ClearPose marks the cue as untracked, e.g. when the controller disconnects.
func (t *Table) ClearPose() {
	t.poseMu.Lock()
	t.pose = nil
	t.fresh = false
	t.resync = true
	t.poseMu.Unlock()
}

// takePose returns the current pose, whether it is new since the last tick
// and whether the detector must drop its previous sample first. It then
// advances the table clock by dt.
func (t *Table) takePose(dt float64) (pose *TipPose, fresh, resync bool) {
	t.poseMu.Lock()
	defer t.poseMu.Unlock()
	fresh = t.fresh
	t.fresh = false
	if dt > 0 {
		t.clock = t.clock.Add(time.Duration(dt * float64(time.Second)))
	}
	if t.pose == nil {
		return nil, false, false
	}
	if fresh {
		resync = t.resync
		t.resync = false
	}
	p := *t.pose
	return &p, fresh, resync
}

func (t *Table) currentPose() *TipPose {
	t.poseMu.Lock()
	defer t.poseMu.Unlock()
	if t.pose == nil {
		return nil
	}
	p := *t.pose
	return &p
}

// SetHaptics attaches the controller that receives strike feedback.
func (t *Table) SetHaptics(h Haptics) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session.SetHaptics(h)
}

// ResetRack re-racks the balls if no shot is in progress.
func (t *Table) ResetRack() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	ok := t.session.ResetRack()
	if ok {
		t.touch()
		log.Printf("[TABLE] %s re-racked", t.ID)
	}
	return ok
}

// Score returns the running score.
func (t *Table) Score() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.session.Score()
}

// Snapshot returns the current state of the table.
func (t *Table) Snapshot() TableSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked()
}

func (t *Table) snapshotLocked() TableSnapshot {
	shots := t.session.Shots()
	return TableSnapshot{
		TableID:    t.ID,
		Score:      t.session.Score(),
		ShotActive: shots.Active(),
		Shot:       shots.Shot(),
		Balls:      t.session.Balls(),
		Tracked:    t.currentPose() != nil,
		UpdatedAt:  time.Now(),
	}
}

// Step advances the table by dt. A pose already sampled by an earlier tick
// is not fed to the strike detector again.
func (t *Table) Step(dt float64) bool {
	pose, fresh, resync := t.takePose(dt)
	t.mu.Lock()
	defer t.mu.Unlock()
	if pose != nil && !fresh {
		t.session.Advance(dt)
		return false
	}
	if resync {
		t.session.ResetStrike()
	}
	return t.session.Tick(pose, dt)
}

// Run ticks the table every interval until ctx is done.
func (t *Table) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	go t.dispatch(ctx)

	log.Printf("[TABLE] %s loop started (tick every %v)", t.ID, interval)
	t.lastTick = time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[TABLE] %s loop stopped", t.ID)
			return
		case now := <-ticker.C:
			dt := now.Sub(t.lastTick).Seconds()
			t.lastTick = now
			t.Step(dt)
		}
	}
}

// onShotEvent runs on the loop goroutine with t.mu held; it must not block.
func (t *Table) onShotEvent(e ShotEvent) {
	t.touch()
	ev := TableEvent{
		TableID: t.ID,
		Type:    e.Type,
		Shot:    e.Shot,
		Score:   e.Score,
		At:      time.Now(),
	}
	if e.Type == EventObjectBall {
		b := e.Ball
		ev.Ball = &b
	}
	select {
	case t.events <- ev:
	default:
		log.Printf("[TABLE] %s event buffer full, dropping %s", t.ID, e.Type)
	}
}

// dispatch persists and fans out events off the loop goroutine.
func (t *Table) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-t.events:
			t.handleEvent(ctx, ev)
		}
	}
}

func (t *Table) handleEvent(ctx context.Context, ev TableEvent) {
	if t.store != nil {
		if ev.Type == EventPointScored {
			if err := t.store.SaveScore(ctx, t.ID, ev.Score); err != nil {
				log.Printf("[TABLE] %s failed to save score %d: %v", t.ID, ev.Score, err)
			}
		}
		if ev.Type == EventPointScored || ev.Type == EventShotEnded {
			if err := t.store.SaveSnapshot(ctx, t.Snapshot()); err != nil {
				log.Printf("[TABLE] %s failed to save snapshot: %v", t.ID, err)
			}
		}
	}
	for _, s := range t.sinks {
		if err := s.Publish(ctx, ev); err != nil {
			log.Printf("[TABLE] %s failed to publish %s: %v", t.ID, ev.Type, err)
		}
	}
}
