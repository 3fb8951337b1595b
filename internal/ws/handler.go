package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/hub"
	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/room"
	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/types"
)

const writeTimeout = 3 * time.Second

// Handler is the event dispatcher boundary: one connection per participant,
// wire messages translated into room messages. Identity is whatever the
// caller claims via ?pid=; absent that, a fresh nanoid.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid := r.URL.Query().Get("pid")
		if pid == "" {
			id, err := gonanoid.New(12)
			if err != nil {
				http.Error(w, "id generation failed", http.StatusInternalServerError)
				return
			}
			pid = id
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()

		// Each room registration gets its own outbox and writer. The room
		// owns the close; a closed channel is never handed out again, so an
		// evicted client can rejoin over the same connection.
		startWriter := func() chan types.ServerMessage {
			outbox := make(chan types.ServerMessage, 32)
			go func() {
				for {
					select {
					case <-writeCtx.Done():
						return
					case msg, ok := <-outbox:
						if !ok {
							return
						}
						payload, err := json.Marshal(msg)
						if err != nil {
							continue
						}
						ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
						_ = conn.Write(ctx, websocket.MessageText, payload)
						cancel()
					}
				}
			}()
			return outbox
		}

		notice := func(typ, roomID string) {
			payload, _ := json.Marshal(types.ServerMessage{Type: typ, RoomID: roomID})
			ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
			_ = conn.Write(ctx, websocket.MessageText, payload)
			cancel()
		}

		var current *room.Room
		detach := func() {
			if current != nil {
				current.Inbox() <- room.Detach{ParticipantID: pid}
				current = nil
			}
		}
		defer detach()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}
			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				log.Debug("bad client message", zap.String("pid", pid), zap.Error(err))
				continue
			}

			switch cm.Type {
			case "create-room":
				reply := make(chan *room.Room, 1)
				h.Inbox() <- hub.CreateRoom{HostID: pid, TeamName: cm.TeamName, Purse: cm.Purse, Reply: reply}
				rm := <-reply
				detach()
				current = rm
				notice("room-created", rm.Code())
				rm.Inbox() <- room.Join{ParticipantID: pid, TeamName: cm.TeamName, Outbox: startWriter()}

			case "join-room":
				rm := lookup(h, cm.RoomID)
				if rm == nil {
					notice("room-not-found", cm.RoomID)
					continue
				}
				detach()
				current = rm
				rm.Inbox() <- room.Join{ParticipantID: pid, TeamName: cm.TeamName, Outbox: startWriter()}

			case "rejoin":
				rm := lookup(h, cm.RoomID)
				if rm == nil {
					notice("session-expired", cm.RoomID)
					continue
				}
				detach()
				current = rm
				rm.Inbox() <- room.Rejoin{ParticipantID: pid, Outbox: startWriter()}

			case "leave-room":
				if rm := lookup(h, cm.RoomID); rm != nil {
					rm.Inbox() <- room.Leave{ParticipantID: pid}
				}
				current = nil

			case "start-auction":
				if rm := lookup(h, cm.RoomID); rm != nil {
					rm.Inbox() <- room.StartAuction{ParticipantID: pid}
				}

			case "place-bid":
				if rm := lookup(h, cm.RoomID); rm != nil {
					rm.Inbox() <- room.PlaceBid{ParticipantID: pid, Amount: cm.Amount}
				}

			case "skip":
				if rm := lookup(h, cm.RoomID); rm != nil {
					rm.Inbox() <- room.Skip{ParticipantID: pid}
				}

			case "opt-out":
				if rm := lookup(h, cm.RoomID); rm != nil {
					rm.Inbox() <- room.OptOut{ParticipantID: pid}
				}

			case "submit-lineup":
				if rm := lookup(h, cm.RoomID); rm != nil {
					rm.Inbox() <- room.SubmitLineup{
						ParticipantID: pid,
						PlayerIDs:     cm.PlayerIDs,
						CaptainID:     cm.CaptainID,
						ViceCaptainID: cm.ViceCaptainID,
					}
				}

			default:
				// Unknown event: drop, the transport is assumed racy.
			}
		}
	}
}

// lookup resolves a room code; events against a vanished room are dropped
// by the caller since they most likely raced a teardown.
func lookup(h *hub.Hub, code string) *room.Room {
	if code == "" {
		return nil
	}
	reply := make(chan *room.Room, 1)
	h.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
	return <-reply
}
