package engine

import (
	"math"
	"strings"
)

// ComputeRating derives the catalog rating from the three raw skills using
// role-specific weights. "WK" rates like a batsman; the long-form
// "Wicketkeeper" role splits evenly between batting and fielding.
func ComputeRating(role string, batting, bowling, fielding int) int {
	bat, bowl, field := float64(batting), float64(bowling), float64(fielding)

	var r float64
	switch strings.ToLower(role) {
	case "batsman", "wk":
		r = 0.75*bat + 0.20*field + 0.05*bowl
	case "bowler":
		r = 0.75*bowl + 0.20*field + 0.05*bat
	case "all-rounder":
		r = 0.40*bat + 0.40*bowl + 0.20*field
	case "wicketkeeper":
		r = 0.50*bat + 0.50*field
	default:
		r = (bat + bowl + field) / 3
	}
	return int(math.Round(r))
}
