package main

import (
	"encoding/json"
	"testing"
)

func TestBinaryInput(t *testing.T) {
	msg := EncodeBinaryInput(Vec2{12.5, -3.25}, 0x02)
	if len(msg) != 8 || msg[0] != binaryInputTag {
		t.Fatalf("unexpected frame % x", msg)
	}
	p, flags, ok := DecodeBinaryInput(msg)
	if !ok {
		t.Fatal("decode failed")
	}
	if p != (Vec2{12.5, -3.25}) || flags != 0x02 {
		t.Errorf("got %v flags %x", p, flags)
	}

	// out of range coordinates saturate instead of wrapping
	p, _, _ = DecodeBinaryInput(EncodeBinaryInput(Vec2{400, -400}, 0))
	if !approx(p.X, 327.67) || !approx(p.Y, -327.68) {
		t.Errorf("expected saturation, got %v", p)
	}
}

func TestBinaryInputRejects(t *testing.T) {
	if _, _, ok := DecodeBinaryInput([]byte{binaryInputTag, 0, 0}); ok {
		t.Error("short message should be rejected")
	}
	bad := EncodeBinaryInput(Vec2{1, 1}, 0)
	bad[0] = 0x07
	if _, _, ok := DecodeBinaryInput(bad); ok {
		t.Error("wrong tag should be rejected")
	}
}

func TestFrameEncoding(t *testing.T) {
	a, _ := newTestArena(testTunables())
	a.AddGrower(Vec2{5, 5})
	steerTo(a, Vec2{10, 3})

	data, err := EncodeFrame(a.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	f, err := DecodeFrame(data)
	if err != nil {
		t.Fatal(err)
	}
	if f.Tick != 1 || len(f.Growers) != 1 || f.Growers[0].ID != "g1" {
		t.Errorf("unexpected frame %+v", f)
	}
	if len(f.Trail) != 2 || f.Trail[1] != [2]float64{10, 3} {
		t.Errorf("trail = %v", f.Trail)
	}
	if len(f.Tiles) != 5 {
		t.Errorf("expected 5 tiles, got %d", len(f.Tiles))
	}

	if _, err := DecodeFrame([]byte{0xc1}); err == nil {
		t.Error("garbage should not decode")
	}
}

func TestLoopMsgJSON(t *testing.T) {
	b, err := json.Marshal(Envelope{T: MsgLoop, Data: LoopMsg{
		Ring:      [][2]float64{{0, 0}, {1, 0}, {0, 1}, {0, 0}},
		Area:      0.5,
		Encircled: []string{"g1"},
		Score:     100,
	}})
	if err != nil {
		t.Fatal(err)
	}
	var env struct {
		T string `json:"t"`
		D struct {
			Ring [][2]float64 `json:"ring"`
			IDs  []string     `json:"ids"`
			Sc   int          `json:"sc"`
		} `json:"d"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatal(err)
	}
	if env.T != MsgLoop || len(env.D.Ring) != 4 || env.D.IDs[0] != "g1" || env.D.Sc != 100 {
		t.Errorf("unexpected wire form %s", b)
	}
}
