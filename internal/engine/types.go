package engine

import "time"

type Phase string

const (
	PhaseLobby     Phase = "LOBBY"
	PhaseAuction   Phase = "AUCTION"
	PhaseSelection Phase = "SELECTION"
	PhaseResult    Phase = "RESULT"
)

const (
	MinPurse     = 50.0
	MaxPurse     = 500.0
	MinIncrement = 0.25

	MaxSquadSize = 25
	MinSquadSize = 18
	LineupSize   = 11

	OverseasSquadCap  = 8
	OverseasLineupCap = 4

	CountdownSeconds = 10
)

// Player is a catalog entry plus the per-auction sale price.
type Player struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Role          string  `json:"role"`
	BattingSkill  int     `json:"battingSkill"`
	BowlingSkill  int     `json:"bowlingSkill"`
	FieldingSkill int     `json:"fieldingSkill"`
	Overseas      bool    `json:"overseas"`
	BasePrice     float64 `json:"basePrice"`
	Rating        int     `json:"rating"`
	SoldPrice     float64 `json:"soldPrice,omitempty"`
}

type Team struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Purse             float64  `json:"purse"`
	Squad             []Player `json:"squad"`
	IsEliminated      bool     `json:"isEliminated"`
	IsFinishedBidding bool     `json:"isFinishedBidding"`
	Playing11         []string `json:"playing11,omitempty"`
	CaptainID         string   `json:"captainId,omitempty"`
	ViceCaptainID     string   `json:"viceCaptainId,omitempty"`
	Submitted11       bool     `json:"submitted11"`
	TotalScore        float64  `json:"totalScore"`
}

func (t *Team) overseasCount() int {
	n := 0
	for _, p := range t.Squad {
		if p.Overseas {
			n++
		}
	}
	return n
}

// Auction holds the mutable per-room auction state. Timer handles live in
// the room actor, never here.
type Auction struct {
	PlayerPool         []Player        `json:"playerPool"`
	CurrentPlayerIndex int             `json:"currentPlayerIndex"`
	CurrentBid         float64         `json:"currentBid"`
	CurrentBidderID    string          `json:"currentBidderId,omitempty"`
	SkippedBy          map[string]bool `json:"-"`
	Phase              Phase           `json:"phase"`
	TimeLeft           int             `json:"timeLeft"`
	BiddingOpen        bool            `json:"biddingOpen"`
}

type Config struct {
	StartingPurse float64 `json:"startingPurse"`
}

// State is the full mutable state of one room. All mutation happens on the
// owning room goroutine, so none of this is locked.
type State struct {
	Code         string           `json:"code"`
	HostID       string           `json:"hostId"`
	Config       Config           `json:"config"`
	Teams        map[string]*Team `json:"teams"`
	TeamOrder    []string         `json:"teamOrder"` // creation order; host promotion tie-break
	Auction      *Auction         `json:"auction"`
	LastActivity time.Time        `json:"lastActivity"`
}

func ClampPurse(p float64) float64 {
	if p < MinPurse {
		return MinPurse
	}
	if p > MaxPurse {
		return MaxPurse
	}
	return p
}

func NewState(code, hostID, hostName string, purse float64, pool []Player) *State {
	s := &State{
		Code:   code,
		HostID: hostID,
		Config: Config{StartingPurse: ClampPurse(purse)},
		Teams:  make(map[string]*Team),
		Auction: &Auction{
			PlayerPool: pool,
			SkippedBy:  make(map[string]bool),
			Phase:      PhaseLobby,
		},
		LastActivity: time.Now().UTC(),
	}
	s.Teams[hostID] = &Team{ID: hostID, Name: hostName, Purse: s.Config.StartingPurse, Squad: []Player{}}
	s.TeamOrder = append(s.TeamOrder, hostID)
	return s
}
