package main

import (
	"context"
	"sync"
	"testing"
	"time"
)

type mockSender struct {
	mu     sync.Mutex
	types  []string
	data   []interface{}
	frames int
}

func (m *mockSender) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if env, ok := msg.(Envelope); ok {
		m.types = append(m.types, env.T)
		m.data = append(m.data, env.Data)
	}
}

func (m *mockSender) SendBinary([]byte) {
	m.mu.Lock()
	m.frames++
	m.mu.Unlock()
}

// last returns the payload of the most recent message of type typ
func (m *mockSender) last(typ string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.types) - 1; i >= 0; i-- {
		if m.types[i] == typ {
			return m.data[i], true
		}
	}
	return nil, false
}

func newTestManager(t *testing.T) (*SessionManager, *sqlStore) {
	t.Helper()
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	sm := NewSessionManager(ctx, DefaultTunables(), s, nil)
	t.Cleanup(func() {
		sm.CloseAll()
		cancel()
	})
	return sm, s
}

func TestSessionLeaveRecordsRun(t *testing.T) {
	sm, store := newTestManager(t)
	desktop := &mockSender{}
	sess, err := sm.Create(desktop, "rookie", 0)
	if err != nil {
		t.Fatal(err)
	}
	if sm.Get(sess.ID) != sess {
		t.Fatal("session not registered")
	}
	if sess.Arena.Phase() != PhasePlaying {
		t.Fatal("new session should be playing")
	}

	sess.Arena.Leave()
	data, ok := desktop.last(MsgOver)
	if !ok {
		t.Fatal("desktop should get the over message")
	}
	if over := data.(OverMsg); over.Cause != CauseLeft {
		t.Errorf("expected cause left, got %q", over.Cause)
	}

	top, err := store.TopRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 || top[0].Pilot != "rookie" {
		t.Errorf("expected one saved run for rookie, got %+v", top)
	}
}

func TestSessionBestForAccounts(t *testing.T) {
	sm, store := newTestManager(t)
	id, err := store.CreatePilot("ace", "")
	if err != nil {
		t.Fatal(err)
	}
	store.SaveRun(RunRecord{Pilot: "ace", PilotID: id, Score: 4200})

	desktop := &mockSender{}
	sess, err := sm.Create(desktop, "ace", id)
	if err != nil {
		t.Fatal(err)
	}
	sess.Arena.Leave()
	data, _ := desktop.last(MsgOver)
	if over, ok := data.(OverMsg); !ok || over.Best != 4200 {
		t.Errorf("account holder should see their best, got %+v", data)
	}
}

func TestSessionController(t *testing.T) {
	sm, _ := newTestManager(t)
	desktop := &mockSender{}
	sess, err := sm.Create(desktop, "pair", 0)
	if err != nil {
		t.Fatal(err)
	}

	phone := &mockSender{}
	sess.SetController(phone)
	if _, ok := desktop.last(MsgCtrlOn); !ok {
		t.Error("desktop should hear about the controller")
	}

	sess.RemoveController(&mockSender{})
	if _, ok := desktop.last(MsgCtrlOff); ok {
		t.Error("removing a stranger should not detach the controller")
	}
	sess.RemoveController(phone)
	if _, ok := desktop.last(MsgCtrlOff); !ok {
		t.Error("desktop should hear the controller left")
	}
}

func TestSessionReapIdle(t *testing.T) {
	sm, store := newTestManager(t)
	busy, _ := sm.Create(&mockSender{}, "busy", 0)
	idle, _ := sm.Create(&mockSender{}, "idle", 0)

	later := time.Now().Add(SessionIdleTimeout + time.Second)
	busy.mu.Lock()
	busy.lastActive = later
	busy.mu.Unlock()

	if n := sm.ReapIdle(later); n != 1 {
		t.Fatalf("expected 1 reaped, got %d", n)
	}
	if sm.Get(idle.ID) != nil || sm.Get(busy.ID) == nil {
		t.Error("only the idle session should be reaped")
	}
	if idle.Arena.Phase() != PhaseOver {
		t.Error("reaped arena should be over")
	}
	if top, _ := store.TopRuns(10); len(top) != 1 || top[0].Pilot != "idle" {
		t.Errorf("reaped run should be recorded, got %+v", top)
	}
}

func TestSessionRestart(t *testing.T) {
	sm, _ := newTestManager(t)
	sess, _ := sm.Create(&mockSender{}, "again", 0)
	sess.Arena.Leave()
	sess.Restart()
	if sess.Arena.Phase() != PhasePlaying {
		t.Error("restart should begin a new run")
	}
}
