package room

import (
	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/engine"
	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/types"
)

type Msg interface{ isRoomMsg() }

// Join registers a client connection and creates (or re-attaches) its team.
type Join struct {
	ParticipantID string
	TeamName      string
	Outbox        chan types.ServerMessage
}

// Rejoin re-attaches a reconnected participant to an existing team. If the
// team is gone the outbox gets a session-expired unicast and nothing else.
type Rejoin struct {
	ParticipantID string
	Outbox        chan types.ServerMessage
}

// Detach drops the connection but keeps the team around for a later rejoin.
type Detach struct{ ParticipantID string }

// Leave removes the team; the last leave tears the room down.
type Leave struct{ ParticipantID string }

type StartAuction struct{ ParticipantID string }

type PlaceBid struct {
	ParticipantID string
	Amount        float64
}

type Skip struct{ ParticipantID string }

type OptOut struct{ ParticipantID string }

type SubmitLineup struct {
	ParticipantID string
	PlayerIDs     []string
	CaptainID     string
	ViceCaptainID string
}

type Shutdown struct{}

// GetState reflects internal state without data races; test-only.
type GetState struct{ Reply chan View }

type View struct {
	NumClients    int
	CountdownLive bool
	GraceLive     bool
	State         engine.State
}

func (Join) isRoomMsg()         {}
func (Rejoin) isRoomMsg()       {}
func (Detach) isRoomMsg()       {}
func (Leave) isRoomMsg()        {}
func (StartAuction) isRoomMsg() {}
func (PlaceBid) isRoomMsg()     {}
func (Skip) isRoomMsg()         {}
func (OptOut) isRoomMsg()       {}
func (SubmitLineup) isRoomMsg() {}
func (Shutdown) isRoomMsg()     {}
func (GetState) isRoomMsg()     {}
