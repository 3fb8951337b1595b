package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/engine"
)

type record struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Role          string  `json:"role"`
	BattingSkill  int     `json:"battingSkill"`
	BowlingSkill  int     `json:"bowlingSkill"`
	FieldingSkill int     `json:"fieldingSkill"`
	Nationality   string  `json:"nationality"`
	BasePrice     float64 `json:"basePrice"`
}

// Load reads the player catalog and annotates each entry with its computed
// rating. A missing or corrupt file degrades to an empty pool; rooms built
// on it cannot progress but the process never crashes over catalog data.
func Load(path string) ([]engine.Player, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]engine.Player, error) {
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	players := make([]engine.Player, 0, len(recs))
	for _, rec := range recs {
		if rec.ID == "" {
			continue
		}
		players = append(players, engine.Player{
			ID:            rec.ID,
			Name:          rec.Name,
			Role:          rec.Role,
			BattingSkill:  rec.BattingSkill,
			BowlingSkill:  rec.BowlingSkill,
			FieldingSkill: rec.FieldingSkill,
			Overseas:      isOverseas(rec.Nationality),
			BasePrice:     rec.BasePrice,
			Rating:        engine.ComputeRating(rec.Role, rec.BattingSkill, rec.BowlingSkill, rec.FieldingSkill),
		})
	}
	return players, nil
}

func isOverseas(nationality string) bool {
	switch strings.ToLower(strings.TrimSpace(nationality)) {
	case "", "domestic", "india":
		return false
	default:
		return true
	}
}
