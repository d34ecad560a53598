// Package snapshot renders a refresh cycle's normalized odds into the
// odds.json artifact: a per-league map of events with each side's book
// quotes, suitable for diffing between cycles or feeding downstream jobs.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/yourusername/underdog-edge/internal/models"
	"github.com/yourusername/underdog-edge/internal/refdata"
)

// BookSnapshot is one book's quote for one team side.
type BookSnapshot struct {
	Odds       int      `json:"odds"`
	Timestamp  string   `json:"timestamp"`
	MarketName string   `json:"market_name"`
	Line       *float64 `json:"line,omitempty"`
}

// EventSnapshot carries an event's metadata plus one entry per team side
// keyed by the team id rendered as a string.
type EventSnapshot map[string]json.RawMessage

// Snapshot is the full artifact: league name -> event id -> event snapshot.
type Snapshot map[string]map[string]EventSnapshot

// Build assembles the snapshot for one league's events. generatedAt stamps
// every event with the cycle time in RFC 3339.
func Build(league string, events []models.Event, markets refdata.MarketDirectory, generatedAt time.Time) (Snapshot, error) {
	stamped := generatedAt.UTC().Format(time.RFC3339)

	perEvent := make(map[string]EventSnapshot, len(events))
	for _, ev := range events {
		snap, err := buildEvent(ev, markets, stamped)
		if err != nil {
			return nil, err
		}
		perEvent[strconv.Itoa(ev.ID)] = snap
	}

	return Snapshot{league: perEvent}, nil
}

func buildEvent(ev models.Event, markets refdata.MarketDirectory, stamped string) (EventSnapshot, error) {
	snap := make(EventSnapshot, len(ev.Sides)+3)

	for key, val := range map[string]interface{}{
		"start_time": ev.StartRaw,
		"name":       ev.Name,
		"timestamp":  stamped,
	} {
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("failed to encode event %d: %w", ev.ID, err)
		}
		snap[key] = raw
	}

	for _, side := range ev.Sides {
		books := make(map[string]BookSnapshot, len(side.Books))
		for bookID, quote := range side.Books {
			books[strconv.Itoa(bookID)] = BookSnapshot{
				Odds:       quote.AmericanOdds,
				Timestamp:  quote.LastModified,
				MarketName: markets.Name(bookID),
				Line:       quote.Line,
			}
		}
		raw, err := json.Marshal(books)
		if err != nil {
			return nil, fmt.Errorf("failed to encode event %d side %d: %w", ev.ID, side.TeamID, err)
		}
		snap[strconv.Itoa(side.TeamID)] = raw
	}

	return snap, nil
}

// Write persists the snapshot as indented JSON, creating parent directories
// as needed. The file is written atomically via a rename.
func Write(path string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize snapshot: %w", err)
	}
	return nil
}
