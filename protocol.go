package main

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Client -> Server message types
const (
	MsgStart    = "start"   // start or restart a run
	MsgInput    = "input"   // pointer position
	MsgLeave    = "leave"   // abandon the run
	MsgControl  = "control" // phone controller attach
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgAuth     = "auth" // resume with a token
)

// Server -> Client message types
const (
	MsgWelcome   = "welcome"
	MsgLoop      = "loop"
	MsgOver      = "over"
	MsgError     = "error"
	MsgAuthOK    = "auth_ok"
	MsgControlOK = "control_ok"
	MsgCtrlOn    = "ctrl_on"  // notify desktop: controller attached
	MsgCtrlOff   = "ctrl_off" // notify desktop: controller detached
)

// Binary message markers
const (
	binaryInputTag = 0x01 // client input frame
	binaryOutTag   = 0xFF // send-queue marker for binary server frames
	inputScale     = 100  // input coords are fixed point, 1/100 world unit
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// StartMsg asks for a fresh run
type StartMsg struct {
	Name string `json:"name"`
}

// InputMsg is the pointer position in world coords
type InputMsg struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ControlMsg is sent by a phone controller to attach to an arena
type ControlMsg struct {
	SID string `json:"sid"`
}

type RegisterMsg struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginMsg struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type AuthMsg struct {
	Token string `json:"token"`
}

// WelcomeMsg is sent once a run has started
type WelcomeMsg struct {
	SID        string     `json:"sid"`
	Controller string     `json:"ctrl"` // QR image path for pairing a phone
	Arena      ArenaShape `json:"arena"`
}

// ArenaShape tells the client how to lay out the field
type ArenaShape struct {
	Width    float64 `json:"w"`
	Height   float64 `json:"h"`
	TileSize float64 `json:"ts"`
	MinX     int     `json:"mx"`
	MinY     int     `json:"my"`
	Cols     int     `json:"cols"`
	Rows     int     `json:"rows"`
	Max      float64 `json:"max"`
}

// LoopMsg reports a closed loop and what it caught
type LoopMsg struct {
	Ring      [][2]float64 `json:"ring"`
	Area      float64      `json:"area"`
	Encircled []string     `json:"ids,omitempty"`
	Score     int          `json:"sc"`
}

// OverMsg ends a run
type OverMsg struct {
	Score     int     `json:"sc"`
	Seconds   float64 `json:"sec"`
	Encircled int     `json:"enc"`
	Loops     int     `json:"loops"`
	Cause     string  `json:"cause"`
	Best      int     `json:"best,omitempty"`
}

type ErrorMsg struct {
	Msg string `json:"msg"`
}

type AuthOKMsg struct {
	Token   string `json:"token"`
	Name    string `json:"name"`
	PilotID int64  `json:"pid"`
	Best    int    `json:"best"`
}

// PilotState is the pilot as sent in frames
type PilotState struct {
	X     float64 `msgpack:"x" json:"x"`
	Y     float64 `msgpack:"y" json:"y"`
	TX    float64 `msgpack:"tx" json:"tx"`
	TY    float64 `msgpack:"ty" json:"ty"`
	Speed float64 `msgpack:"v" json:"v"`
	Alive bool    `msgpack:"a" json:"a"`
}

type GrowerState struct {
	ID string  `msgpack:"id" json:"id"`
	X  float64 `msgpack:"x" json:"x"`
	Y  float64 `msgpack:"y" json:"y"`
	R  float64 `msgpack:"r" json:"r"`
}

// TileState is one non-empty tile
type TileState struct {
	X int     `msgpack:"x" json:"x"`
	Y int     `msgpack:"y" json:"y"`
	S float64 `msgpack:"s" json:"s"`
}

// Frame is the full arena state, sent as msgpack
type Frame struct {
	Tick    uint64        `msgpack:"tick"`
	Phase   int           `msgpack:"ph"`
	Time    float64       `msgpack:"t"`
	Score   int           `msgpack:"sc"`
	Pilot   PilotState    `msgpack:"p"`
	Trail   [][2]float64  `msgpack:"tr"`
	Growers []GrowerState `msgpack:"g"`
	Tiles   []TileState   `msgpack:"tl"`
	Loop    [][2]float64  `msgpack:"lp,omitempty"`
}

// EncodeFrame marshals a frame for a binary websocket message
func EncodeFrame(f *Frame) ([]byte, error) {
	data, err := msgpack.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return data, nil
}

// DecodeFrame is the inverse of EncodeFrame
func DecodeFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return &f, nil
}

// toWire flattens points into compact pairs
func toWire(pts []Vec2) [][2]float64 {
	if len(pts) == 0 {
		return nil
	}
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i] = [2]float64{round3(p.X), round3(p.Y)}
	}
	return out
}

// EncodeBinaryInput builds the compact 8-byte input message:
// [0x01, x_hi, x_lo, y_hi, y_lo, flags, 0, 0] with x, y in 1/100 world units
func EncodeBinaryInput(p Vec2, flags byte) []byte {
	x := uint16(int16(Clamp(p.X*inputScale, -32768, 32767)))
	y := uint16(int16(Clamp(p.Y*inputScale, -32768, 32767)))
	return []byte{binaryInputTag, byte(x >> 8), byte(x), byte(y >> 8), byte(y), flags, 0, 0}
}

// DecodeBinaryInput parses an 8-byte input message
func DecodeBinaryInput(msg []byte) (Vec2, byte, bool) {
	if len(msg) != 8 || msg[0] != binaryInputTag {
		return Vec2{}, 0, false
	}
	x := float64(int16(uint16(msg[1])<<8|uint16(msg[2]))) / inputScale
	y := float64(int16(uint16(msg[3])<<8|uint16(msg[4]))) / inputScale
	return Vec2{x, y}, msg[5], true
}
