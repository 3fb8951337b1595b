package engine

import (
	"math"
	"strings"
)

// normalizeRole collapses the catalog role spellings into the four tallied
// buckets. Unknown roles fall outside every bucket.
func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	switch {
	case strings.HasPrefix(r, "wicket"), r == "wk":
		return "wk"
	case r == "batsman", r == "bat":
		return "bat"
	case r == "bowler", r == "bowl":
		return "bowl"
	case strings.HasPrefix(r, "all"), r == "ar":
		return "ar"
	default:
		return ""
	}
}

// effectiveRating applies the value-for-money adjustment. The rules form an
// ordered chain: only the first matching rule applies, never more than one.
func effectiveRating(p Player) float64 {
	factor := 0.0
	if p.BasePrice > 0 {
		factor = p.SoldPrice / p.BasePrice
	}
	r := float64(p.Rating)
	switch {
	case r > 91 && factor <= 6:
		r += 2
	case r > 91 && factor >= 9:
		r -= 5
	case r > 88 && factor >= 8:
		r -= 5
	case r > 88 && factor < 6:
		r += 5
	case factor < 3:
		r += 5
	}
	if r < 0 {
		r = 0
	}
	return r
}

// balancePenalty punishes lineups lacking role diversity: surplus keepers,
// thin bowling options, thin batting.
func balancePenalty(selection []Player) float64 {
	wk, bat, bowl, ar := 0, 0, 0, 0
	for _, p := range selection {
		switch normalizeRole(p.Role) {
		case "wk":
			wk++
		case "bat":
			bat++
		case "bowl":
			bowl++
		case "ar":
			ar++
		}
	}
	penalty := 0.0
	if wk > 2 {
		penalty += 20 * float64(wk-2)
	}
	if bowl+ar < 5 {
		penalty += 25 * float64(5-(bowl+ar))
	}
	if bat < 3 {
		penalty += 15 * float64(3-bat)
	}
	return penalty
}

// scoreLineup computes the final score for a validated selection.
func scoreLineup(selection []Player, captainID, viceCaptainID string) float64 {
	var captain, vice float64
	for _, p := range selection {
		switch p.ID {
		case captainID:
			captain = effectiveRating(p)
		case viceCaptainID:
			vice = effectiveRating(p)
		}
	}

	bonus := 0.10*captain + 0.05*vice
	score := 2*captain + 1.5*vice
	for _, p := range selection {
		if p.ID == captainID || p.ID == viceCaptainID {
			continue
		}
		score += effectiveRating(p) + bonus
	}
	score -= balancePenalty(selection)

	return math.Max(0, round2(score))
}

// SubmitLineup validates and scores a lineup; each failure is a silent
// rejection. The score is written exactly once.
func (s *State) SubmitLineup(teamID string, playerIDs []string, captainID, viceCaptainID string) []Event {
	if s.Auction.Phase != PhaseSelection {
		return nil
	}
	t, ok := s.Teams[teamID]
	if !ok || t.IsEliminated || t.Submitted11 {
		return nil
	}

	want := LineupSize
	if len(t.Squad) < LineupSize {
		want = len(t.Squad)
	}
	if len(playerIDs) != want {
		return nil
	}

	byID := make(map[string]Player, len(t.Squad))
	for _, p := range t.Squad {
		byID[p.ID] = p
	}
	selection := make([]Player, 0, len(playerIDs))
	seen := make(map[string]bool, len(playerIDs))
	overseas := 0
	for _, id := range playerIDs {
		p, ok := byID[id]
		if !ok || seen[id] {
			return nil
		}
		seen[id] = true
		if p.Overseas {
			overseas++
		}
		selection = append(selection, p)
	}
	if overseas > OverseasLineupCap {
		return nil
	}
	if captainID == viceCaptainID || !seen[captainID] || !seen[viceCaptainID] {
		return nil
	}

	s.touch()
	t.Playing11 = append([]string(nil), playerIDs...)
	t.CaptainID = captainID
	t.ViceCaptainID = viceCaptainID
	t.TotalScore = scoreLineup(selection, captainID, viceCaptainID)
	t.Submitted11 = true

	for _, id := range s.TeamOrder {
		other := s.Teams[id]
		if !other.IsEliminated && !other.Submitted11 {
			return []Event{s.teamListEvent()}
		}
	}
	return s.enterResult()
}
