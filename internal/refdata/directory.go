// Package refdata manages the immutable reference directories (market
// sources and teams) consumed by the refresh pipeline. Directories are
// rebuilt wholesale from a feed payload or loaded from the JSON files the
// reference-sync job writes; they are never patched in place.
package refdata

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yourusername/underdog-edge/internal/models"
)

// MarketDirectory maps book ids to display names.
type MarketDirectory map[int]string

// TeamDirectory maps team ids to static team records.
type TeamDirectory map[int]models.Team

// Name resolves a book id to its display name, synthesizing a "Book {id}"
// placeholder for ids missing from the directory.
func (d MarketDirectory) Name(id int) string {
	if name, ok := d[id]; ok {
		return name
	}
	return fmt.Sprintf("Book %d", id)
}

// AbbreviationIndex returns an exact-match abbreviation lookup restricted to
// one league.
func (d TeamDirectory) AbbreviationIndex(leagueID int) map[string]int {
	index := make(map[string]int)
	for id, team := range d {
		if team.LeagueID == leagueID {
			index[team.Abbreviation] = id
		}
	}
	return index
}

// BuildMarketDirectory constructs a fresh market directory from feed records.
func BuildMarketDirectory(sources []models.MarketSource) MarketDirectory {
	dir := make(MarketDirectory, len(sources))
	for _, src := range sources {
		dir[src.ID] = src.Name
	}
	return dir
}

// BuildTeamDirectory constructs a fresh team directory from feed records.
func BuildTeamDirectory(teams []models.Team) TeamDirectory {
	dir := make(TeamDirectory, len(teams))
	for _, team := range teams {
		dir[team.ID] = team
	}
	return dir
}

// LoadMarketDirectory reads a market directory file (bookId -> name).
func LoadMarketDirectory(path string) (MarketDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read market directory: %w", err)
	}
	var dir MarketDirectory
	if err := json.Unmarshal(data, &dir); err != nil {
		return nil, fmt.Errorf("failed to parse market directory: %w", err)
	}
	return dir, nil
}

// LoadTeamDirectory reads a team directory file (teamId -> team record).
func LoadTeamDirectory(path string) (TeamDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read team directory: %w", err)
	}
	var dir TeamDirectory
	if err := json.Unmarshal(data, &dir); err != nil {
		return nil, fmt.Errorf("failed to parse team directory: %w", err)
	}
	return dir, nil
}

// SaveMarketDirectory writes the directory as indented JSON.
func SaveMarketDirectory(path string, dir MarketDirectory) error {
	return writeJSON(path, dir)
}

// SaveTeamDirectory writes the directory as indented JSON.
func SaveTeamDirectory(path string, dir TeamDirectory) error {
	return writeJSON(path, dir)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
