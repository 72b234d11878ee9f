// Package mappings provides the queueId→name and championId→name lookup
// services. Both are total: an unknown id maps to "Unknown", never an error.
package mappings

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"
)

const queuesURL = "https://static.developer.riotgames.com/docs/lol/queues.json"

// Well-known queue ids used by the command surface filters.
const (
	QueueRankedSolo = 420
	QueueARAM       = 450
	QueueArena      = 1700
)

// Unknown is the fallback name for ids missing from a loaded map.
const Unknown = "Unknown"

// QueueMap resolves queue ids to their human descriptions.
type QueueMap struct {
	mu     sync.RWMutex
	queues map[int]string
}

// fallbackQueues covers the queues the filters care about when the static
// data endpoint is unreachable.
var fallbackQueues = map[int]string{
	QueueRankedSolo: "Ranked Solo",
	QueueARAM:       "ARAM",
	QueueArena:      "Ascension",
}

// NewQueueMap returns a queue map pre-seeded with the fallback entries.
func NewQueueMap() *QueueMap {
	seeded := make(map[int]string, len(fallbackQueues))
	for id, name := range fallbackQueues {
		seeded[id] = name
	}
	return &QueueMap{queues: seeded}
}

// Load fetches the full queue list from the static data endpoint. On failure
// the fallback entries remain in place.
func (q *QueueMap) Load(ctx context.Context) error {
	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queuesURL, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("[Mappings] Queue map fetch failed: %v (using fallback map)", err)
		return err
	}
	defer resp.Body.Close()

	var entries []struct {
		QueueID     int    `json:"queueId"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		log.Printf("[Mappings] Queue map parse failed: %v (using fallback map)", err)
		return err
	}

	loaded := make(map[int]string, len(entries))
	for _, e := range entries {
		if e.Description != "" {
			loaded[e.QueueID] = e.Description
		}
	}

	q.mu.Lock()
	q.queues = loaded
	q.mu.Unlock()

	return nil
}

// Name returns the queue description, or "Unknown" for unmapped ids.
func (q *QueueMap) Name(queueID int) string {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if name, ok := q.queues[queueID]; ok {
		return name
	}
	return Unknown
}
