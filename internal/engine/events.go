package engine

type EventType string

const (
	EvtRoomJoined       EventType = "room-joined"
	EvtTeamList         EventType = "team-list"
	EvtAuctionStarted   EventType = "auction-started"
	EvtNewLot           EventType = "new-lot"
	EvtBidUpdated       EventType = "bid-updated"
	EvtCountdown        EventType = "countdown"
	EvtLotSold          EventType = "lot-sold"
	EvtLotUnsold        EventType = "lot-unsold"
	EvtSelectionStarted EventType = "selection-started"
	EvtGameOver         EventType = "game-over"
	EvtResync           EventType = "resync"
)

// Event is one externally visible outcome of applying a command. To set
// means unicast to that participant; empty means broadcast to the room.
type Event struct {
	Type    EventType
	To      string
	Payload any
}

type TeamView struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Purse             float64 `json:"purse"`
	SquadSize         int     `json:"squadSize"`
	IsEliminated      bool    `json:"isEliminated"`
	IsFinishedBidding bool    `json:"isFinishedBidding"`
	Submitted11       bool    `json:"submitted11"`
}

type TeamListPayload struct {
	HostID string     `json:"hostId"`
	Teams  []TeamView `json:"teams"`
}

type JoinedPayload struct {
	RoomID string   `json:"roomId"`
	HostID string   `json:"hostId"`
	Team   TeamView `json:"team"`
}

type LotPayload struct {
	Player     Player  `json:"player"`
	OpeningBid float64 `json:"openingBid"`
	TimeLeft   int     `json:"timeLeft"`
}

type BidPayload struct {
	Amount   float64 `json:"amount"`
	TeamID   string  `json:"teamId"`
	TeamName string  `json:"teamName"`
}

type TickPayload struct {
	TimeLeft int `json:"timeLeft"`
}

type SalePayload struct {
	Player    Player  `json:"player"`
	TeamID    string  `json:"teamId"`
	TeamName  string  `json:"teamName"`
	Price     float64 `json:"price"`
	PurseLeft float64 `json:"purseLeft"`
}

type UnsoldPayload struct {
	Player Player `json:"player"`
}

type Standing struct {
	TeamID   string  `json:"teamId"`
	TeamName string  `json:"teamName"`
	Score    float64 `json:"score"`
}

type ResultPayload struct {
	WinnerID   string     `json:"winnerId"`
	WinnerName string     `json:"winnerName"`
	Ranking    []Standing `json:"ranking"`
}

type ResyncPayload struct {
	RoomID          string  `json:"roomId"`
	HostID          string  `json:"hostId"`
	Phase           Phase   `json:"phase"`
	Lot             *Player `json:"lot,omitempty"`
	CurrentBid      float64 `json:"currentBid"`
	CurrentBidderID string  `json:"currentBidderId,omitempty"`
	TimeLeft        int     `json:"timeLeft"`
	BiddingOpen     bool    `json:"biddingOpen"`
	Team            *Team   `json:"team"`
}

func broadcast(t EventType, payload any) Event {
	return Event{Type: t, Payload: payload}
}

func unicast(t EventType, to string, payload any) Event {
	return Event{Type: t, To: to, Payload: payload}
}
