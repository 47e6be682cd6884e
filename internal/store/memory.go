package store

import (
	"sort"
	"sync"

	"github.com/jpalmerr/balancecheck"
)

// subscriberBuffer is the channel capacity given to each subscriber.
const subscriberBuffer = 100

// MemoryStore is an in-memory [Store].
//
// Updates are delivered to subscribers without blocking; a subscriber whose
// buffer is full misses that update.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]OutcomeRecord

	subMu       sync.RWMutex
	subscribers map[chan OutcomeRecord]struct{}
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:     make(map[string]OutcomeRecord),
		subscribers: make(map[chan OutcomeRecord]struct{}),
	}
}

// Update stores rec, replacing any earlier record for the same service.
func (m *MemoryStore) Update(rec OutcomeRecord) {
	m.mu.Lock()
	m.records[rec.Service] = rec
	m.mu.Unlock()

	m.notifySubscribers(rec)
}

// Observe records a checker outcome. It has the signature expected by
// balancecheck.WithOutcomeCallback.
func (m *MemoryStore) Observe(o balancecheck.Outcome) {
	m.Update(FromOutcome(o))
}

// GetAll returns a copy of all records sorted by service name.
func (m *MemoryStore) GetAll() []OutcomeRecord {
	m.mu.RLock()
	records := make([]OutcomeRecord, 0, len(m.records))
	for _, rec := range m.records {
		records = append(records, rec)
	}
	m.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].Service < records[j].Service
	})
	return records
}

// Subscribe registers a new subscriber.
func (m *MemoryStore) Subscribe() <-chan OutcomeRecord {
	ch := make(chan OutcomeRecord, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (m *MemoryStore) Unsubscribe(ch <-chan OutcomeRecord) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

func (m *MemoryStore) notifySubscribers(rec OutcomeRecord) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- rec:
		default:
			// slow subscriber, drop
		}
	}
}
