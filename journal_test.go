package main

import "testing"

func TestJournalFlushesOnStop(t *testing.T) {
	s := newTestStore(t)
	j := NewJournal(s)
	j.Track(EvtRunStart, "arena", 0, nil)
	j.Track(EvtLoop, "arena", 0, map[string]float64{"area": 8})
	j.Track(EvtLoop, "arena", 0, map[string]float64{"area": 2})
	j.Stop()
	j.Stop()

	if n, _ := s.countEvents(EvtLoop); n != 2 {
		t.Errorf("expected 2 loop events, got %d", n)
	}
	if n, _ := s.countEvents(EvtRunStart); n != 1 {
		t.Errorf("expected 1 run_start event, got %d", n)
	}
	if written, dropped := j.Counts(); written != 3 || dropped != 0 {
		t.Errorf("counts = (%d, %d), want (3, 0)", written, dropped)
	}

	var data string
	if err := s.conn.QueryRow(`SELECT data FROM events WHERE type = ? ORDER BY id LIMIT 1`, EvtRunStart).Scan(&data); err != nil {
		t.Fatal(err)
	}
	if data != "{}" {
		t.Errorf("nil data should be stored as {}, got %q", data)
	}
}

func TestJournalNilIsNoop(t *testing.T) {
	var j *Journal
	j.Track(EvtLoop, "a", 0, nil)
	j.Stop()

	empty := NewJournal(nil)
	empty.Track(EvtLoop, "a", 0, nil)
	empty.Stop()
	if written, _ := empty.Counts(); written != 0 {
		t.Errorf("journal without a store wrote %d events", written)
	}
}
