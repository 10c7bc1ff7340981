package main

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Journal event types
const (
	EvtRunStart   = "run_start"
	EvtRunEnd     = "run_end"
	EvtLoop       = "loop"
	EvtEncircle   = "encircle"
	EvtController = "controller"
	EvtLogin      = "login"
)

const (
	journalBuffer     = 1024
	journalBatch      = 50
	journalFlushEvery = 5 * time.Second
)

// Journal records gameplay events with batched background writes. Track never blocks;
// when the buffer is full the event is dropped.
type Journal struct {
	store  RunStore
	events chan JournalEvent
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	mu      sync.Mutex
	dropped int
	written int
}

// NewJournal starts the background writer. A nil store makes every Track a no-op.
func NewJournal(store RunStore) *Journal {
	j := &Journal{
		store:  store,
		events: make(chan JournalEvent, journalBuffer),
		stop:   make(chan struct{}),
	}
	j.wg.Add(1)
	go j.writer()
	return j
}

// Track enqueues an event. data is marshalled to JSON; nil becomes {}.
func (j *Journal) Track(typ, arenaID string, pilotID int64, data interface{}) {
	if j == nil || j.store == nil {
		return
	}
	payload := "{}"
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			log.Printf("journal: marshal %s: %v", typ, err)
			return
		}
		payload = string(b)
	}
	select {
	case j.events <- JournalEvent{
		Type:    typ,
		ArenaID: arenaID,
		PilotID: pilotID,
		Data:    payload,
		At:      time.Now().UTC(),
	}:
	default:
		j.mu.Lock()
		j.dropped++
		j.mu.Unlock()
	}
}

// Stop flushes what is queued and waits for the writer
func (j *Journal) Stop() {
	if j == nil {
		return
	}
	j.once.Do(func() { close(j.stop) })
	j.wg.Wait()
}

// Counts returns events written and dropped so far
func (j *Journal) Counts() (written, dropped int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.written, j.dropped
}

func (j *Journal) writer() {
	defer j.wg.Done()

	batch := make([]JournalEvent, 0, journalBatch)
	ticker := time.NewTicker(journalFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case evt := <-j.events:
			batch = append(batch, evt)
			if len(batch) >= journalBatch {
				j.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				j.flush(batch)
				batch = batch[:0]
			}
		case <-j.stop:
			for {
				select {
				case evt := <-j.events:
					batch = append(batch, evt)
				default:
					j.flush(batch)
					return
				}
			}
		}
	}
}

func (j *Journal) flush(events []JournalEvent) {
	if j.store == nil || len(events) == 0 {
		return
	}
	if err := j.store.RecordEvents(events); err != nil {
		log.Printf("journal: flush %d events: %v", len(events), err)
		return
	}
	j.mu.Lock()
	j.written += len(events)
	j.mu.Unlock()
}
