package game

// DefaultRestSpeed is the aggregate ball speed (sum of |v|, m/s) below which
// an active shot ends.
const DefaultRestSpeed = 0.01

// RequiredCushions is the minimum number of cue-ball cushion contacts that
// must precede the second object ball for a point.
const RequiredCushions = 3

// Shot holds the per-shot accumulators.
type Shot struct {
	Active          bool `json:"active"`
	CushionContacts int  `json:"cushion_contacts"`
	// BallsContacted is indexed by BallID; only the object ball slots are used.
	BallsContacted [NumBalls]bool `json:"balls_contacted"`
	Evaluated      bool           `json:"evaluated"`
	Scored         bool           `json:"scored"`
}

// ContactedCount returns the number of distinct object balls struck.
func (s Shot) ContactedCount() int {
	n := 0
	for id, hit := range s.BallsContacted {
		if hit && BallID(id).IsObjectBall() {
			n++
		}
	}
	return n
}

// ShotTracker decides, shot by shot, whether a point is earned.
//
// It is not safe for concurrent use; the owning session drives it from a
// single goroutine.
type ShotTracker struct {
	shot      Shot
	ledger    *Ledger
	restSpeed float64
	listener  ShotListener
}

// NewShotTracker creates a tracker that awards points into ledger. A
// restSpeed <= 0 selects DefaultRestSpeed; listener may be nil.
func NewShotTracker(ledger *Ledger, restSpeed float64, listener ShotListener) *ShotTracker {
	if ledger == nil {
		ledger = NewLedger(0)
	}
	if restSpeed <= 0 {
		restSpeed = DefaultRestSpeed
	}
	if listener == nil {
		listener = nopListener{}
	}
	return &ShotTracker{ledger: ledger, restSpeed: restSpeed, listener: listener}
}

// StartShot begins a new shot. Calling it while a shot is active does nothing.
func (t *ShotTracker) StartShot() {
	if t.shot.Active {
		return
	}
	t.shot = Shot{Active: true}
	t.listener.OnShotEvent(ShotEvent{Type: EventShotStarted, Shot: t.shot, Score: t.ledger.Score()})
}

// OnContact tallies a classified contact into the active shot.
func (t *ShotTracker) OnContact(kind ContactKind) {
	if !t.shot.Active {
		return
	}

	switch kind.Kind {
	case ContactCushion:
		t.shot.CushionContacts++
		t.listener.OnShotEvent(ShotEvent{Type: EventCushion, Shot: t.shot, Score: t.ledger.Score()})
	case ContactObjectBall:
		if !kind.Ball.IsObjectBall() || t.shot.BallsContacted[kind.Ball] {
			return
		}
		t.shot.BallsContacted[kind.Ball] = true
		t.listener.OnShotEvent(ShotEvent{Type: EventObjectBall, Ball: kind.Ball, Shot: t.shot, Score: t.ledger.Score()})
		t.evaluate()
	}
}

// evaluate runs once per shot, when the second distinct object ball is first
// contacted. Later contacts never re-open the decision.
func (t *ShotTracker) evaluate() {
	if t.shot.Evaluated || t.shot.ContactedCount() != 2 {
		return
	}
	t.shot.Evaluated = true

	if t.shot.CushionContacts >= RequiredCushions {
		t.shot.Scored = true
		t.ledger.Award()
		t.listener.OnShotEvent(ShotEvent{Type: EventPointScored, Shot: t.shot, Score: t.ledger.Score()})
		return
	}
	t.listener.OnShotEvent(ShotEvent{Type: EventShotMissed, Shot: t.shot, Score: t.ledger.Score()})
}

// Update ends the active shot once the aggregate ball speed drops below the
// rest threshold.
func (t *ShotTracker) Update(aggregateSpeed float64) {
	if !t.shot.Active || aggregateSpeed >= t.restSpeed {
		return
	}
	t.shot.Active = false
	t.listener.OnShotEvent(ShotEvent{Type: EventShotEnded, Shot: t.shot, Score: t.ledger.Score()})
}

// Active reports whether a shot is in progress.
func (t *ShotTracker) Active() bool {
	return t.shot.Active
}

// Shot returns a copy of the current (or last) shot.
func (t *ShotTracker) Shot() Shot {
	return t.shot
}

// Ledger returns the score ledger the tracker awards into.
func (t *ShotTracker) Ledger() *Ledger {
	return t.ledger
}

// RestSpeed returns the aggregate speed threshold that ends a shot.
func (t *ShotTracker) RestSpeed() float64 {
	return t.restSpeed
}
