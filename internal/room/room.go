package room

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/engine"
	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/store"
	"github.com/adda4audience-design/Cricket-Auction-Game-V2/internal/types"
)

const (
	graceDelay   = 3 * time.Second
	saveDebounce = 1 * time.Second
)

type Deps struct {
	Store   store.SnapshotStore
	Log     *zap.Logger
	OnEmpty func(code string) // notifies the hub after the last team leaves
}

// Room owns one auction room. All state mutation happens on the loop
// goroutine; timers are plain channels in the same select, so a mutation
// and a timer fire can never interleave partway.
type Room struct {
	code    string
	inbox   chan Msg
	state   *engine.State
	clients map[string]chan types.ServerMessage

	deps Deps

	countdown   *time.Ticker
	countdownCh <-chan time.Time

	grace   *time.Timer
	graceCh <-chan time.Time
	lotGen  int // cursor value when the grace timer was armed

	saveTimer *time.Timer
	saveCh    <-chan time.Time
	dirty     bool

	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, st *engine.State, deps Deps) *Room {
	ctx, cancel := context.WithCancel(parent)
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	r := &Room{
		code:    st.Code,
		inbox:   make(chan Msg, 64),
		state:   st,
		clients: make(map[string]chan types.ServerMessage),
		deps:    deps,
		ctx:     ctx,
		cancel:  cancel,
	}
	// Restored rooms mid-lot pick their countdown back up from the
	// persisted timeLeft.
	if st.Auction.Phase == engine.PhaseAuction && st.Auction.BiddingOpen {
		if st.Auction.TimeLeft <= 0 {
			st.Auction.TimeLeft = engine.CountdownSeconds
		}
		r.armCountdown()
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) Code() string { return r.code }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			if done := r.handle(m); done {
				return
			}

		case <-r.countdownCh:
			r.apply(r.state.Tick())

		case <-r.graceCh:
			r.graceCh = nil
			r.grace = nil
			// Stale fire: the lot moved on while this was pending.
			if r.lotGen != r.state.Auction.CurrentPlayerIndex {
				continue
			}
			r.apply(r.state.AdvanceLot())

		case <-r.saveCh:
			r.saveCh = nil
			r.saveTimer = nil
			r.flushSave()
		}
	}
}

func (r *Room) handle(m Msg) (done bool) {
	switch msg := m.(type) {
	case Join:
		events := r.state.AddTeam(msg.ParticipantID, msg.TeamName)
		if events != nil {
			r.clients[msg.ParticipantID] = msg.Outbox
		}
		r.apply(events)

	case Rejoin:
		if _, ok := r.state.Teams[msg.ParticipantID]; !ok {
			select {
			case msg.Outbox <- types.ServerMessage{Type: "session-expired", RoomID: r.code}:
			default:
			}
			break
		}
		r.clients[msg.ParticipantID] = msg.Outbox
		r.apply(r.state.Resync(msg.ParticipantID))

	case Detach:
		delete(r.clients, msg.ParticipantID)

	case Leave:
		delete(r.clients, msg.ParticipantID)
		events, empty := r.state.RemoveTeam(msg.ParticipantID)
		if empty {
			r.teardown()
			return true
		}
		r.apply(events)

	case StartAuction:
		r.apply(r.state.StartAuction(msg.ParticipantID))

	case PlaceBid:
		r.apply(r.state.PlaceBid(msg.ParticipantID, msg.Amount))

	case Skip:
		r.apply(r.state.Skip(msg.ParticipantID))
		// A skip below quorum emits nothing but still changes persisted
		// state, so it schedules a save on its own.
		r.markDirty()

	case OptOut:
		r.apply(r.state.OptOut(msg.ParticipantID))

	case SubmitLineup:
		r.apply(r.state.SubmitLineup(msg.ParticipantID, msg.PlayerIDs, msg.CaptainID, msg.ViceCaptainID))

	case GetState:
		msg.Reply <- View{
			NumClients:    len(r.clients),
			CountdownLive: r.countdown != nil,
			GraceLive:     r.grace != nil,
			State:         *r.state,
		}

	case Shutdown:
		r.shutdown()
		return true
	}
	return false
}

// apply broadcasts the event batch and adjusts the timers it implies. The
// batch shape encodes the transition: a resolution without a phase change
// schedules the grace delay for the next lot.
func (r *Room) apply(events []engine.Event) {
	if len(events) == 0 {
		return
	}
	for _, ev := range events {
		msg := types.ServerMessage{Type: string(ev.Type), RoomID: r.code, Payload: ev.Payload}
		if ev.To != "" {
			r.unicast(ev.To, msg)
		} else {
			r.broadcast(msg)
		}
	}

	switch {
	case hasEvent(events, engine.EvtSelectionStarted), hasEvent(events, engine.EvtGameOver):
		r.stopCountdown()
		r.stopGrace()
	case hasEvent(events, engine.EvtLotSold), hasEvent(events, engine.EvtLotUnsold):
		r.stopCountdown()
		r.armGrace()
	case hasEvent(events, engine.EvtNewLot), hasEvent(events, engine.EvtBidUpdated):
		r.armCountdown()
	}
	r.markDirty()
}

func hasEvent(events []engine.Event, t engine.EventType) bool {
	for _, ev := range events {
		if ev.Type == t {
			return true
		}
	}
	return false
}

func (r *Room) armCountdown() {
	r.stopCountdown()
	r.countdown = time.NewTicker(time.Second)
	r.countdownCh = r.countdown.C
}

func (r *Room) stopCountdown() {
	if r.countdown != nil {
		r.countdown.Stop()
		r.countdown = nil
		r.countdownCh = nil
	}
}

func (r *Room) armGrace() {
	r.stopGrace()
	r.grace = time.NewTimer(graceDelay)
	r.graceCh = r.grace.C
	r.lotGen = r.state.Auction.CurrentPlayerIndex
}

func (r *Room) stopGrace() {
	if r.grace != nil {
		r.grace.Stop()
		r.grace = nil
		r.graceCh = nil
	}
}

// markDirty schedules a trailing-debounce save: at most one write per
// window no matter how many events land inside it.
func (r *Room) markDirty() {
	r.dirty = true
	if r.saveCh == nil {
		r.saveTimer = time.NewTimer(saveDebounce)
		r.saveCh = r.saveTimer.C
	}
}

func (r *Room) flushSave() {
	if !r.dirty {
		return
	}
	r.dirty = false
	data, err := store.Encode(r.state)
	if err != nil {
		r.deps.Log.Error("encode snapshot", zap.String("room", r.code), zap.Error(err))
		return
	}
	// Background context: the final flush runs while the room context is
	// already cancelled.
	if err := r.deps.Store.Save(context.Background(), r.code, data); err != nil {
		// In-memory state is authoritative; the next debounce retries.
		r.deps.Log.Warn("save snapshot", zap.String("room", r.code), zap.Error(err))
	}
}

func (r *Room) unicast(participantID string, msg types.ServerMessage) {
	ch, ok := r.clients[participantID]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		close(ch)
		delete(r.clients, participantID)
	}
}

func (r *Room) broadcast(msg types.ServerMessage) {
	for id, ch := range r.clients {
		select {
		case ch <- msg:
		default:
			// Slow client: drop it rather than stall the room.
			close(ch)
			delete(r.clients, id)
		}
	}
}

// teardown is the last-team-left path: timers cancelled, snapshot deleted,
// hub notified.
func (r *Room) teardown() {
	r.stopCountdown()
	r.stopGrace()
	r.stopSaveTimer()
	if err := r.deps.Store.Delete(context.Background(), r.code); err != nil {
		r.deps.Log.Warn("delete snapshot", zap.String("room", r.code), zap.Error(err))
	}
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	if r.deps.OnEmpty != nil {
		r.deps.OnEmpty(r.code)
	}
	r.deps.Log.Info("room closed", zap.String("room", r.code))
	r.cancel()
}

// shutdown is the process-exit path: flush the pending save, keep the
// snapshot for restore.
func (r *Room) shutdown() {
	r.stopCountdown()
	r.stopGrace()
	r.stopSaveTimer()
	r.flushSave()
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	r.cancel()
}

func (r *Room) stopSaveTimer() {
	if r.saveTimer != nil {
		r.saveTimer.Stop()
		r.saveTimer = nil
		r.saveCh = nil
	}
}
