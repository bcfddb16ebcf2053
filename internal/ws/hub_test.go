package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/playmatatu/carom/internal/config"
	"github.com/playmatatu/carom/internal/game"
	"github.com/playmatatu/carom/internal/physics"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHub()
	go h.Run(ctx)
	return h
}

func newTestTable(t *testing.T, id string) *game.Table {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cfg := &config.Config{TickRateHz: 60}
	m := game.NewTableManager(ctx, cfg, func() game.World { return physics.NewWorld(nil) }, nil)
	tbl, err := m.GetOrCreateTable(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

// recv returns the next decoded message for c, failing after a timeout.
func recv(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if !ok {
			t.Fatal("client channel closed")
		}
		var msg map[string]interface{}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad message %s: %v", data, err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return nil
}

func join(t *testing.T, h *Hub, tbl *game.Table, role Role, name string) *Client {
	t.Helper()
	c := newClient(h, nil, tbl, role, name)
	h.register <- c
	if msg := recv(t, c); msg["type"] != "table_state" {
		t.Fatalf("first message = %v, want table_state", msg["type"])
	}
	return c
}

func waitClosed(t *testing.T, c *Client) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-c.send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("client was not closed")
		}
	}
}

func TestJoinSendsTableState(t *testing.T) {
	h := startHub(t)
	tbl := newTestTable(t, "t1")

	c := newClient(h, nil, tbl, RoleSpectator, "")
	h.register <- c
	msg := recv(t, c)
	state, ok := msg["state"].(map[string]interface{})
	if !ok {
		t.Fatalf("table_state without state: %v", msg)
	}
	if state["table_id"] != "t1" || state["score"] != float64(0) {
		t.Errorf("state = %v", state)
	}
	if h.RoomSize("t1") != 1 {
		t.Errorf("RoomSize = %d, want 1", h.RoomSize("t1"))
	}
}

func TestSpectatorCannotDrive(t *testing.T) {
	h := startHub(t)
	tbl := newTestTable(t, "t1")
	c := join(t, h, tbl, RoleSpectator, "")

	c.handleMessage(WSMessage{Type: "tip_pose", Data: json.RawMessage(`{"position":[0,0.83,0.5]}`)})
	if msg := recv(t, c); msg["type"] != "error" {
		t.Errorf("tip_pose from spectator: got %v, want error", msg)
	}
	c.handleMessage(WSMessage{Type: "reset_rack"})
	if msg := recv(t, c); msg["type"] != "error" {
		t.Errorf("reset_rack from spectator: got %v, want error", msg)
	}
	c.handleFrame([]byte{0x80})
	if msg := recv(t, c); msg["type"] != "error" {
		t.Errorf("binary frame from spectator: got %v, want error", msg)
	}
	if tbl.Snapshot().Tracked {
		t.Error("spectator pose reached the table")
	}
}

func TestControllerPose(t *testing.T) {
	h := startHub(t)
	tbl := newTestTable(t, "t1")
	c := join(t, h, tbl, RoleController, "alice")

	if !h.HasController("t1") {
		t.Fatal("controller not registered")
	}
	c.handleMessage(WSMessage{Type: "tip_pose", Data: json.RawMessage(`{"position":[0,1.5,0]}`)})
	if !tbl.Snapshot().Tracked {
		t.Error("controller pose not submitted")
	}

	c.handleMessage(WSMessage{Type: "tip_pose", Data: json.RawMessage(`{"position":[0,1]}`)})
	if msg := recv(t, c); msg["type"] != "error" {
		t.Errorf("bad pose: got %v, want error", msg)
	}
}

func TestControllerBinaryFrame(t *testing.T) {
	h := startHub(t)
	tbl := newTestTable(t, "t1")
	c := join(t, h, tbl, RoleController, "alice")

	data, err := EncodePoseFrame(game.TipPose{})
	if err != nil {
		t.Fatal(err)
	}
	c.handleFrame(data)
	if !tbl.Snapshot().Tracked {
		t.Error("binary pose not submitted")
	}
}

func TestGetStateAndUnknown(t *testing.T) {
	h := startHub(t)
	tbl := newTestTable(t, "t1")
	c := join(t, h, tbl, RoleSpectator, "")

	c.handleMessage(WSMessage{Type: "get_state"})
	if msg := recv(t, c); msg["type"] != "table_state" {
		t.Errorf("get_state: got %v", msg["type"])
	}
	c.handleMessage(WSMessage{Type: "take_shot"})
	if msg := recv(t, c); msg["type"] != "error" {
		t.Errorf("unknown type: got %v, want error", msg["type"])
	}
}

func TestResetRackBroadcasts(t *testing.T) {
	h := startHub(t)
	tbl := newTestTable(t, "t1")
	ctrl := join(t, h, tbl, RoleController, "alice")
	watcher := join(t, h, tbl, RoleSpectator, "")

	ctrl.handleMessage(WSMessage{Type: "reset_rack"})
	if msg := recv(t, watcher); msg["type"] != "table_state" {
		t.Errorf("spectator got %v after re-rack, want table_state", msg["type"])
	}
	if msg := recv(t, ctrl); msg["type"] != "table_state" {
		t.Errorf("controller got %v after re-rack, want table_state", msg["type"])
	}
}

func TestBroadcastEventStaysInTable(t *testing.T) {
	h := startHub(t)
	a := join(t, h, newTestTable(t, "a"), RoleSpectator, "")
	b := join(t, h, newTestTable(t, "b"), RoleSpectator, "")

	LocalSink{Hub: h}.Publish(context.Background(), game.TableEvent{TableID: "a", Type: game.EventPointScored, Score: 1})

	msg := recv(t, a)
	if msg["type"] != string(game.EventPointScored) || msg["score"] != float64(1) {
		t.Errorf("table a got %v", msg)
	}
	select {
	case data := <-b.send:
		t.Errorf("table b received %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestControllerReplaced(t *testing.T) {
	h := startHub(t)
	tbl := newTestTable(t, "t1")
	first := join(t, h, tbl, RoleController, "alice")
	second := join(t, h, tbl, RoleController, "bob")

	waitClosed(t, first)
	if h.RoomSize("t1") != 1 {
		t.Errorf("RoomSize = %d, want 1", h.RoomSize("t1"))
	}

	// the replaced client's late unregister must not detach the new controller
	h.unregister <- first
	second.handleMessage(WSMessage{Type: "get_state"})
	recv(t, second)
	if !h.HasController("t1") {
		t.Error("new controller lost after old one unregistered")
	}
}

func TestControllerDisconnectClearsPose(t *testing.T) {
	h := startHub(t)
	tbl := newTestTable(t, "t1")
	c := join(t, h, tbl, RoleController, "alice")
	c.handleMessage(WSMessage{Type: "tip_pose", Data: json.RawMessage(`{"position":[0,1.5,0]}`)})

	h.unregister <- c
	waitClosed(t, c)

	if tbl.Snapshot().Tracked {
		t.Error("pose still tracked after controller left")
	}
	if h.HasController("t1") || h.RoomSize("t1") != 0 {
		t.Error("controller still registered")
	}
}

func TestPulseAfterCloseIsDropped(t *testing.T) {
	h := startHub(t)
	tbl := newTestTable(t, "t1")
	c := join(t, h, tbl, RoleController, "alice")

	c.Pulse(1, 100*time.Millisecond)
	msg := recv(t, c)
	if msg["type"] != "haptic_pulse" || msg["intensity"] != float64(1) || msg["duration_ms"] != float64(100) {
		t.Errorf("pulse message = %v", msg)
	}

	c.close()
	c.Pulse(1, 100*time.Millisecond) // must not panic
}
