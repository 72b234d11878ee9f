package lcu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bits-and-blooms/bloom/v3"
)

// DefaultPageSize matches the page window the game client UI requests.
const DefaultPageSize = 30

// FetchError reports a transport or parse failure on one history page.
// It is distinct from end-of-history, which is signalled by a short page.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching history page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Summoner is the current-summoner payload subset the pipeline needs.
type Summoner struct {
	DisplayName  string `json:"displayName"`
	GameName     string `json:"gameName"`
	SummonerName string `json:"summonerName"`
	PUUID        string `json:"puuid"`
}

// Name returns the best available display name.
func (s *Summoner) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	if s.GameName != "" {
		return s.GameName
	}
	return s.SummonerName
}

// GetCurrentSummoner returns the logged-in summoner
func (c *Client) GetCurrentSummoner(ctx context.Context) (*Summoner, error) {
	resp, err := c.Get(ctx, "/lol-summoner/v1/current-summoner")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var summoner Summoner
	if err := json.NewDecoder(resp.Body).Decode(&summoner); err != nil {
		return nil, err
	}
	if summoner.PUUID == "" {
		return nil, fmt.Errorf("current-summoner payload missing puuid")
	}

	return &summoner, nil
}

// FetchPage returns one index window of match summaries for a player.
// The window is [pageIndex*pageSize, pageIndex*pageSize+pageSize).
func (c *Client) FetchPage(ctx context.Context, puuid string, pageIndex, pageSize int) ([]MatchSummary, error) {
	beg := pageIndex * pageSize
	endpoint := fmt.Sprintf("/lol-match-history/v1/products/lol/%s/matches?begIndex=%d&endIndex=%d",
		puuid, beg, beg+pageSize)

	resp, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, &FetchError{Page: pageIndex, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Page: pageIndex, Err: fmt.Errorf("unexpected status: %d", resp.StatusCode)}
	}

	var history MatchHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, &FetchError{Page: pageIndex, Err: err}
	}

	return history.Games.Games, nil
}

// FetchAll walks the player's history from page 0 in increasing order and
// streams summaries to fn, deduplicated by gameId. Paging stops at the first
// page shorter than pageSize (including empty): the history endpoint marks
// end-of-data with a short page, never an error. A transport or parse failure
// is returned as a *FetchError; summaries streamed before it stand.
//
// Dedup uses a bloom filter sized well past any realistic history length.
// The store's insert-if-absent writes make re-running over overlapping
// windows safe regardless.
func (c *Client) FetchAll(ctx context.Context, puuid string, pageSize int, fn func(MatchSummary) error) error {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	seen := bloom.NewWithEstimates(100000, 0.0001)

	for page := 0; ; page++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		games, err := c.FetchPage(ctx, puuid, page, pageSize)
		if err != nil {
			return err
		}

		for _, g := range games {
			key := strconv.FormatInt(g.GameID, 10)
			if seen.TestString(key) {
				continue
			}
			seen.AddString(key)

			if err := fn(g); err != nil {
				return err
			}
		}

		// Anything short of a full page is end-of-history, even when non-empty.
		if len(games) < pageSize {
			return nil
		}
	}
}

// GetGame fetches the full detail record for one game. The payload has the
// same shape as a summary with teams, bans and identities populated; callers
// must validate completeness, the endpoint routinely returns partial JSON.
func (c *Client) GetGame(ctx context.Context, gameID int64) (*MatchSummary, error) {
	endpoint := fmt.Sprintf("/lol-match-history/v1/games/%d", gameID)

	resp, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var game MatchSummary
	if err := json.NewDecoder(resp.Body).Decode(&game); err != nil {
		return nil, err
	}

	return &game, nil
}
