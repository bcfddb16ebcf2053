package game

import "log"

// EventType names a shot lifecycle event.
type EventType string

const (
	EventShotStarted EventType = "shot_started"
	EventCushion     EventType = "cushion"
	EventObjectBall  EventType = "object_ball"
	EventPointScored EventType = "point_scored"
	EventShotMissed  EventType = "shot_missed"
	EventShotEnded   EventType = "shot_ended"
)

// ShotEvent is emitted by the tracker as a shot progresses. Shot is a copy
// taken after the event was applied.
type ShotEvent struct {
	Type  EventType `json:"type"`
	Ball  BallID    `json:"ball,omitempty"`
	Shot  Shot      `json:"shot"`
	Score int       `json:"score"`
}

// ShotListener observes shot events. Listeners run synchronously on the
// simulation goroutine and must not block.
type ShotListener interface {
	OnShotEvent(ShotEvent)
}

// ListenerFunc adapts a function to ShotListener.
type ListenerFunc func(ShotEvent)

func (f ListenerFunc) OnShotEvent(e ShotEvent) { f(e) }

// Listeners fans an event out to several listeners in order.
type Listeners []ShotListener

func (ls Listeners) OnShotEvent(e ShotEvent) {
	for _, l := range ls {
		if l != nil {
			l.OnShotEvent(e)
		}
	}
}

type nopListener struct{}

func (nopListener) OnShotEvent(ShotEvent) {}

// LogListener writes shot lifecycle lines tagged with the table id.
type LogListener struct {
	TableID string
}

func (l LogListener) OnShotEvent(e ShotEvent) {
	switch e.Type {
	case EventShotStarted:
		log.Printf("[SHOT] table=%s shot started", l.TableID)
	case EventCushion:
		log.Printf("[SHOT] table=%s cushion hit count=%d", l.TableID, e.Shot.CushionContacts)
	case EventObjectBall:
		log.Printf("[SHOT] table=%s hit %s", l.TableID, e.Ball)
	case EventPointScored:
		log.Printf("[SHOT] table=%s POINT SCORED score=%d", l.TableID, e.Score)
	case EventShotMissed:
		log.Printf("[SHOT] table=%s no point: %d cushions", l.TableID, e.Shot.CushionContacts)
	case EventShotEnded:
		log.Printf("[SHOT] table=%s balls stopped, shot ended", l.TableID)
	}
}
