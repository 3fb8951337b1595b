package hub

import (
	"context"
	"crypto/rand"
	"math/big"
	mrand "math/rand"

	"go.uber.org/zap"

	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/engine"
	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/room"
	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/store"
)

type HubMsg interface{ isHubMsg() }

// CreateRoom builds a fresh room: clamped purse, unique short code, a
// freshly shuffled copy of the catalog as the lot order.
type CreateRoom struct {
	HostID   string
	TeamName string
	Purse    float64
	Reply    chan *room.Room
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room // nil when absent
}

type RemoveRoom struct{ Code string }

// RestoreRooms rebuilds rooms from persisted snapshots on startup; rooms
// mid-auction re-arm their countdown.
type RestoreRooms struct {
	Snapshots map[string][]byte
	Reply     chan int
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()   {}
func (GetRoom) isHubMsg()      {}
func (RemoveRoom) isHubMsg()   {}
func (RestoreRooms) isHubMsg() {}
func (ShutdownHub) isHubMsg()  {}

// Hub is the registry actor owning the room map. Rooms are independent;
// the hub never touches room state after construction.
type Hub struct {
	inbox   chan HubMsg
	rooms   map[string]*room.Room
	catalog []engine.Player
	store   store.SnapshotStore
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, catalog []engine.Player, snaps store.SnapshotStore, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	if snaps == nil {
		snaps = store.Noop{}
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		rooms:   make(map[string]*room.Room),
		catalog: catalog,
		store:   snaps,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				code := h.uniqueCode()
				st := engine.NewState(code, msg.HostID, msg.TeamName, msg.Purse, h.shuffledPool())
				rm := h.spawn(st)
				h.log.Info("room created", zap.String("room", code), zap.String("host", msg.HostID))
				msg.Reply <- rm

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code]

			case RemoveRoom:
				delete(h.rooms, msg.Code)

			case RestoreRooms:
				n := 0
				for code, data := range msg.Snapshots {
					st, err := store.Decode(data)
					if err != nil {
						h.log.Warn("skip bad snapshot", zap.String("room", code), zap.Error(err))
						continue
					}
					if _, exists := h.rooms[st.Code]; exists {
						continue
					}
					h.spawn(st)
					n++
				}
				if n > 0 {
					h.log.Info("rooms restored", zap.Int("count", n))
				}
				if msg.Reply != nil {
					msg.Reply <- n
				}

			case ShutdownHub:
				for _, rm := range h.rooms {
					rm.Inbox() <- room.Shutdown{}
				}
				clear(h.rooms)
				h.cancel()
			}
		}
	}
}

func (h *Hub) spawn(st *engine.State) *room.Room {
	rm := room.New(h.ctx, st, room.Deps{
		Store: h.store,
		Log:   h.log,
		OnEmpty: func(code string) {
			// Posted from the room goroutine; the inbox serializes it.
			select {
			case h.inbox <- RemoveRoom{Code: code}:
			case <-h.ctx.Done():
			}
		},
	})
	h.rooms[st.Code] = rm
	return rm
}

// shuffledPool is a uniform Fisher-Yates shuffle over a copy; the catalog
// itself stays untouched.
func (h *Hub) shuffledPool() []engine.Player {
	pool := make([]engine.Player, len(h.catalog))
	copy(pool, h.catalog)
	mrand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool
}

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateCode() (string, error) {
	code := make([]byte, 6)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[n.Int64()]
	}
	return string(code), nil
}

func (h *Hub) uniqueCode() string {
	for {
		code, err := generateCode()
		if err != nil {
			h.log.Error("generate room code", zap.Error(err))
			continue
		}
		if _, taken := h.rooms[code]; !taken {
			return code
		}
	}
}
