package ws

import (
	"context"
	"log"

	"github.com/playmatatu/carom/internal/game"
	"github.com/playmatatu/carom/internal/scores"
	"github.com/redis/go-redis/v9"
)

var rdbClient *redis.Client

func SetRedisClient(r *redis.Client) {
	rdbClient = r
}

// StartTableEventSubscriber subscribes to the table_events channel and
// broadcasts incoming events to the tables' clients on this instance.
func StartTableEventSubscriber(ctx context.Context) {
	if rdbClient == nil {
		log.Println("[WS] Redis client not set; table event subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, scores.EventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", scores.EventsChannel)
		for {
			var msg *redis.Message
			select {
			case <-ctx.Done():
				log.Printf("[WS] %s subscriber stopped", scores.EventsChannel)
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				msg = m
			}
			ev, err := scores.DecodeEvent([]byte(msg.Payload))
			if err != nil {
				log.Printf("[WS] invalid event payload: %v", err)
				continue
			}
			if TableHub.RoomSize(ev.TableID) == 0 {
				continue
			}
			TableHub.BroadcastEvent(ev)
		}
	}()
}

// LocalSink delivers table events straight to a hub. It is used when there
// is no redis to fan events out through.
type LocalSink struct {
	Hub *Hub
}

func (s LocalSink) Publish(_ context.Context, ev game.TableEvent) error {
	s.Hub.BroadcastEvent(ev)
	return nil
}
