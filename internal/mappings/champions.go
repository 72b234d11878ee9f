package mappings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// ChampionData holds champion information from Data Dragon
type ChampionData struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// ChampionRegistry holds the champion ID to name mapping
type ChampionRegistry struct {
	champions map[int]string
	version   string
	mu        sync.RWMutex
	loaded    bool
}

// NewChampionRegistry creates a new champion registry
func NewChampionRegistry() *ChampionRegistry {
	return &ChampionRegistry{
		champions: make(map[int]string),
	}
}

// Load fetches champion data from Data Dragon
func (r *ChampionRegistry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	client := &http.Client{Timeout: 10 * time.Second}

	// Get latest version
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://ddragon.leagueoflegends.com/api/versions.json", nil)
	if err != nil {
		return err
	}
	versionsResp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch versions: %w", err)
	}
	defer versionsResp.Body.Close()

	var versions []string
	if err := json.NewDecoder(versionsResp.Body).Decode(&versions); err != nil {
		return fmt.Errorf("failed to parse versions: %w", err)
	}

	if len(versions) == 0 {
		return fmt.Errorf("no versions available")
	}

	latestVersion := versions[0]

	// Get champion data
	champURL := fmt.Sprintf("https://ddragon.leagueoflegends.com/cdn/%s/data/en_US/champion.json", latestVersion)
	champReq, err := http.NewRequestWithContext(ctx, http.MethodGet, champURL, nil)
	if err != nil {
		return err
	}
	champResp, err := client.Do(champReq)
	if err != nil {
		return fmt.Errorf("failed to fetch champions: %w", err)
	}
	defer champResp.Body.Close()

	var champData struct {
		Data map[string]ChampionData `json:"data"`
	}
	if err := json.NewDecoder(champResp.Body).Decode(&champData); err != nil {
		return fmt.Errorf("failed to parse champions: %w", err)
	}

	for _, champ := range champData.Data {
		key, err := strconv.Atoi(champ.Key)
		if err != nil {
			continue
		}
		r.champions[key] = champ.Name
	}

	r.version = latestVersion
	r.loaded = true

	return nil
}

// Name returns the champion's display name, or "Unknown" for unmapped ids.
func (r *ChampionRegistry) Name(championID int) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name, ok := r.champions[championID]; ok {
		return name
	}
	return Unknown
}

// Version returns the Data Dragon version the registry was loaded from.
func (r *ChampionRegistry) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Loaded reports whether Load has completed successfully.
func (r *ChampionRegistry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}
