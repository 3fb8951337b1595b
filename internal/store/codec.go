package store

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/engine"
)

// snapshot is the persisted form of a room. It differs from the live state
// in exactly one way: the skip set is written as an ordered list.
type snapshot struct {
	Code         string                  `json:"code"`
	HostID       string                  `json:"hostId"`
	Config       engine.Config           `json:"config"`
	Teams        map[string]*engine.Team `json:"teams"`
	TeamOrder    []string                `json:"teamOrder"`
	Auction      auctionSnapshot         `json:"auction"`
	LastActivity time.Time               `json:"lastActivity"`
}

type auctionSnapshot struct {
	PlayerPool         []engine.Player `json:"playerPool"`
	CurrentPlayerIndex int             `json:"currentPlayerIndex"`
	CurrentBid         float64         `json:"currentBid"`
	CurrentBidderID    string          `json:"currentBidderId,omitempty"`
	BiddingOpen        bool            `json:"biddingOpen"`
	Phase              engine.Phase    `json:"phase"`
	SkippedBy          []string        `json:"skippedBy"`
	TimeLeft           int             `json:"timeLeft"`
}

// Encode serializes a room state. Timer handles never exist here by
// construction; only the logical countdown value travels.
func Encode(s *engine.State) ([]byte, error) {
	skipped := make([]string, 0, len(s.Auction.SkippedBy))
	for id := range s.Auction.SkippedBy {
		skipped = append(skipped, id)
	}
	slices.Sort(skipped)

	snap := snapshot{
		Code:      s.Code,
		HostID:    s.HostID,
		Config:    s.Config,
		Teams:     s.Teams,
		TeamOrder: s.TeamOrder,
		Auction: auctionSnapshot{
			PlayerPool:         s.Auction.PlayerPool,
			CurrentPlayerIndex: s.Auction.CurrentPlayerIndex,
			CurrentBid:         s.Auction.CurrentBid,
			CurrentBidderID:    s.Auction.CurrentBidderID,
			BiddingOpen:        s.Auction.BiddingOpen,
			Phase:              s.Auction.Phase,
			SkippedBy:          skipped,
			TimeLeft:           s.Auction.TimeLeft,
		},
		LastActivity: s.LastActivity,
	}
	return json.Marshal(snap)
}

// Decode reconstructs a room state from a stored snapshot. The caller is
// responsible for re-arming the countdown when phase is AUCTION with
// bidding open.
func Decode(data []byte) (*engine.State, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Code == "" || snap.Auction.Phase == "" {
		return nil, fmt.Errorf("decode snapshot: missing code or phase")
	}

	skipped := make(map[string]bool, len(snap.Auction.SkippedBy))
	for _, id := range snap.Auction.SkippedBy {
		skipped[id] = true
	}
	teams := snap.Teams
	if teams == nil {
		teams = make(map[string]*engine.Team)
	}

	s := &engine.State{
		Code:      snap.Code,
		HostID:    snap.HostID,
		Config:    snap.Config,
		Teams:     teams,
		TeamOrder: snap.TeamOrder,
		Auction: &engine.Auction{
			PlayerPool:         snap.Auction.PlayerPool,
			CurrentPlayerIndex: snap.Auction.CurrentPlayerIndex,
			CurrentBid:         snap.Auction.CurrentBid,
			CurrentBidderID:    snap.Auction.CurrentBidderID,
			BiddingOpen:        snap.Auction.BiddingOpen,
			Phase:              snap.Auction.Phase,
			SkippedBy:          skipped,
			TimeLeft:           snap.Auction.TimeLeft,
		},
		LastActivity: snap.LastActivity,
	}
	return s, nil
}
