package main

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

const maxSessions = 100

// SessionIdleTimeout reaps arenas that have had no input for this long
var SessionIdleTimeout = 2 * time.Minute

// Sender is anything that can receive messages for a session
type Sender interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Session is one arena plus the connections watching and steering it
type Session struct {
	ID    string
	Arena *Arena

	mu         sync.Mutex
	desktop    Sender
	controller Sender
	pilotName  string
	pilotID    int64
	lastActive time.Time

	store   RunStore
	journal *Journal
	cancel  context.CancelFunc
}

// SetPilot names the pilot whose runs this session records
func (s *Session) SetPilot(name string, pilotID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pilotName = name
	s.pilotID = pilotID
}

// Pilot returns the current pilot name and account id
func (s *Session) Pilot() (string, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pilotName, s.pilotID
}

// Touch marks the session active
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Restart begins a new run in the same arena
func (s *Session) Restart() {
	s.Arena.Start()
	s.Touch()
	name, pid := s.Pilot()
	s.journal.Track(EvtRunStart, s.ID, pid, map[string]string{"pilot": name})
}

// SetController attaches a phone controller; a second controller replaces the first
func (s *Session) SetController(c Sender) {
	s.mu.Lock()
	s.controller = c
	desktop := s.desktop
	s.mu.Unlock()
	if desktop != nil {
		desktop.SendJSON(Envelope{T: MsgCtrlOn})
	}
	_, pid := s.Pilot()
	s.journal.Track(EvtController, s.ID, pid, nil)
}

// RemoveController detaches c if it is the current controller
func (s *Session) RemoveController(c Sender) {
	s.mu.Lock()
	if s.controller != c {
		s.mu.Unlock()
		return
	}
	s.controller = nil
	desktop := s.desktop
	s.mu.Unlock()
	if desktop != nil {
		desktop.SendJSON(Envelope{T: MsgCtrlOff})
	}
}

func (s *Session) senders() (Sender, Sender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desktop, s.controller
}

// OnLoop forwards a closed loop to both screens
func (s *Session) OnLoop(ev LoopMsg) {
	desktop, ctrl := s.senders()
	env := Envelope{T: MsgLoop, Data: ev}
	if desktop != nil {
		desktop.SendJSON(env)
	}
	if ctrl != nil {
		ctrl.SendJSON(env)
	}
	_, pid := s.Pilot()
	s.journal.Track(EvtLoop, s.ID, pid, map[string]interface{}{"area": ev.Area, "caught": len(ev.Encircled)})
	for _, id := range ev.Encircled {
		s.journal.Track(EvtEncircle, s.ID, pid, map[string]string{"grower": id})
	}
}

// OnFrame sends the msgpack state to the desktop
func (s *Session) OnFrame(f *Frame) {
	desktop, _ := s.senders()
	if desktop == nil {
		return
	}
	data, err := EncodeFrame(f)
	if err != nil {
		log.Printf("session %s: %v", s.ID, err)
		return
	}
	desktop.SendBinary(data)
}

// OnOver records the run and tells both screens
func (s *Session) OnOver(ev OverMsg) {
	name, pid := s.Pilot()
	if s.store != nil {
		_, err := s.store.SaveRun(RunRecord{
			Pilot:     name,
			PilotID:   pid,
			Score:     ev.Score,
			Seconds:   ev.Seconds,
			Encircled: ev.Encircled,
			Loops:     ev.Loops,
			Cause:     ev.Cause,
			EndedAt:   time.Now(),
		})
		if err != nil {
			log.Printf("session %s: %v", s.ID, err)
		}
		if pid != 0 {
			if best, err := s.store.PilotBest(pid); err == nil {
				ev.Best = best
			}
		}
	}
	s.journal.Track(EvtRunEnd, s.ID, pid, ev)

	desktop, ctrl := s.senders()
	env := Envelope{T: MsgOver, Data: ev}
	if desktop != nil {
		desktop.SendJSON(env)
	}
	if ctrl != nil {
		ctrl.SendJSON(env)
	}
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      Tunables
	store    RunStore
	journal  *Journal
	ctx      context.Context
}

// NewSessionManager creates a manager whose arenas run until ctx is done
func NewSessionManager(ctx context.Context, cfg Tunables, store RunStore, journal *Journal) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		store:    store,
		journal:  journal,
		ctx:      ctx,
	}
}

var errTooManySessions = errors.New("too many active sessions")

// Create starts a new arena for desktop and begins its first run
func (sm *SessionManager) Create(desktop Sender, name string, pilotID int64) (*Session, error) {
	sm.mu.Lock()
	if len(sm.sessions) >= maxSessions {
		sm.mu.Unlock()
		return nil, errTooManySessions
	}
	ctx, cancel := context.WithCancel(sm.ctx)
	sess := &Session{
		ID:         GenerateUUID(),
		desktop:    desktop,
		pilotName:  name,
		pilotID:    pilotID,
		lastActive: time.Now(),
		store:      sm.store,
		journal:    sm.journal,
		cancel:     cancel,
	}
	sess.Arena = NewArena(sess.ID, sm.cfg, nil, sess)
	sm.sessions[sess.ID] = sess
	sm.mu.Unlock()

	go sess.Arena.Run(ctx)
	sess.Restart()
	return sess, nil
}

// Get returns a session by ID
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// Remove ends the run if one is going and stops the arena
func (sm *SessionManager) Remove(id string) {
	sm.mu.Lock()
	sess, ok := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()
	if !ok {
		return
	}
	sess.Arena.Leave()
	sess.Arena.Stop()
	sess.cancel()
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ReapIdle removes sessions idle longer than SessionIdleTimeout
func (sm *SessionManager) ReapIdle(now time.Time) int {
	sm.mu.RLock()
	var idle []string
	for id, sess := range sm.sessions {
		if now.Sub(sess.idleSince()) > SessionIdleTimeout {
			idle = append(idle, id)
		}
	}
	sm.mu.RUnlock()

	for _, id := range idle {
		log.Printf("session %s: idle, reaping", id)
		sm.Remove(id)
	}
	return len(idle)
}

// RunReaper checks for idle sessions until ctx is done
func (sm *SessionManager) RunReaper(ctx context.Context) {
	every := SessionIdleTimeout / 2
	if every < 50*time.Millisecond {
		every = 50 * time.Millisecond
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			sm.ReapIdle(now)
		case <-ctx.Done():
			return
		}
	}
}

// CloseAll stops every arena, recording unfinished runs as abandoned
func (sm *SessionManager) CloseAll() {
	sm.mu.RLock()
	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	sm.mu.RUnlock()
	for _, id := range ids {
		sm.Remove(id)
	}
}
