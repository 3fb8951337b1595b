package types

// ClientMessage is the single inbound wire envelope. Every field is
// caller-controlled and untrusted; the engine validates.
type ClientMessage struct {
	Type          string   `json:"type"`
	RoomID        string   `json:"roomId,omitempty"`
	TeamName      string   `json:"teamName,omitempty"`
	Purse         float64  `json:"purse,omitempty"`
	Amount        float64  `json:"amount,omitempty"`
	PlayerIDs     []string `json:"playerIds,omitempty"`
	CaptainID     string   `json:"captainId,omitempty"`
	ViceCaptainID string   `json:"viceCaptainId,omitempty"`
}

// ServerMessage is the outbound envelope: room broadcasts and unicast acks
// share the same shape.
type ServerMessage struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId,omitempty"`
	Payload any    `json:"payload,omitempty"`
}
