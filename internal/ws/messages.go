package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/playmatatu/carom/internal/game"
	"github.com/vmihailenco/msgpack/v5"
)

// WSMessage is a text frame from a client.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TipPoseData is the JSON form of a tracked tip sample. T is the sample time
// in unix milliseconds; when absent the server tick interval is used.
type TipPoseData struct {
	Position    []float64 `json:"position"`
	Orientation []float64 `json:"orientation,omitempty"`
	T           int64     `json:"t,omitempty"`
}

// PoseFrame is the binary (msgpack) form of a tip sample, for controllers
// streaming at tracking rate.
type PoseFrame struct {
	X  float64 `msgpack:"x"`
	Y  float64 `msgpack:"y"`
	Z  float64 `msgpack:"z"`
	Qx float64 `msgpack:"qx"`
	Qy float64 `msgpack:"qy"`
	Qz float64 `msgpack:"qz"`
	Qw float64 `msgpack:"qw"`
	T  int64   `msgpack:"t"`
}

var errBadPose = errors.New("invalid pose")

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func sampleTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func orientation(x, y, z, w float64) mgl64.Quat {
	if x == 0 && y == 0 && z == 0 && w == 0 {
		return mgl64.QuatIdent()
	}
	return mgl64.Quat{W: w, V: mgl64.Vec3{x, y, z}}.Normalize()
}

// ToPose validates the sample and converts it for the table.
func (d TipPoseData) ToPose() (game.TipPose, error) {
	if len(d.Position) != 3 || !finite(d.Position...) {
		return game.TipPose{}, fmt.Errorf("%w: position must be 3 finite numbers", errBadPose)
	}
	q := mgl64.QuatIdent()
	switch len(d.Orientation) {
	case 0:
	case 4:
		if !finite(d.Orientation...) {
			return game.TipPose{}, fmt.Errorf("%w: orientation must be finite", errBadPose)
		}
		q = orientation(d.Orientation[0], d.Orientation[1], d.Orientation[2], d.Orientation[3])
	default:
		return game.TipPose{}, fmt.Errorf("%w: orientation must be [x,y,z,w]", errBadPose)
	}
	return game.TipPose{
		Position:    mgl64.Vec3{d.Position[0], d.Position[1], d.Position[2]},
		Orientation: q,
		Time:        sampleTime(d.T),
	}, nil
}

// DecodePoseFrame parses a msgpack pose frame.
func DecodePoseFrame(data []byte) (game.TipPose, error) {
	var f PoseFrame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return game.TipPose{}, fmt.Errorf("%w: %v", errBadPose, err)
	}
	if !finite(f.X, f.Y, f.Z, f.Qx, f.Qy, f.Qz, f.Qw) {
		return game.TipPose{}, fmt.Errorf("%w: non-finite value", errBadPose)
	}
	return game.TipPose{
		Position:    mgl64.Vec3{f.X, f.Y, f.Z},
		Orientation: orientation(f.Qx, f.Qy, f.Qz, f.Qw),
		Time:        sampleTime(f.T),
	}, nil
}

// EncodePoseFrame is the inverse of DecodePoseFrame, used by tooling and tests.
func EncodePoseFrame(p game.TipPose) ([]byte, error) {
	f := PoseFrame{
		X: p.Position[0], Y: p.Position[1], Z: p.Position[2],
		Qx: p.Orientation.V[0], Qy: p.Orientation.V[1], Qz: p.Orientation.V[2], Qw: p.Orientation.W,
	}
	if !p.Time.IsZero() {
		f.T = p.Time.UnixMilli()
	}
	return msgpack.Marshal(&f)
}

// handleMessage processes a text message from a client.
func (c *Client) handleMessage(msg WSMessage) {
	switch msg.Type {
	case "tip_pose":
		if c.role != RoleController {
			c.sendError("Only the controller may send poses")
			return
		}
		var data TipPoseData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid pose data")
			return
		}
		pose, err := data.ToPose()
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.table.SubmitPose(pose)

	case "reset_rack":
		if c.role != RoleController {
			c.sendError("Only the controller may reset the rack")
			return
		}
		if !c.table.ResetRack() {
			c.sendError("Cannot reset the rack while a shot is in progress")
			return
		}
		c.hub.BroadcastToTable(c.tableID, stateMessage(c.table.Snapshot()))

	case "get_state":
		c.sendJSON(stateMessage(c.table.Snapshot()))

	default:
		c.sendError("Unknown message type")
	}
}

// handleFrame processes a binary pose frame.
func (c *Client) handleFrame(data []byte) {
	if c.role != RoleController {
		c.sendError("Only the controller may send poses")
		return
	}
	pose, err := DecodePoseFrame(data)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.table.SubmitPose(pose)
}
