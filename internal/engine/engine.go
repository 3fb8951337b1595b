package engine

import (
	"math"
	"slices"
	"time"
)

// Float comparisons tolerate accumulated rounding from serialized purses.
const eps = 1e-9

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *State) touch() {
	s.LastActivity = time.Now().UTC()
}

func (s *State) teamViews() TeamListPayload {
	views := make([]TeamView, 0, len(s.TeamOrder))
	for _, id := range s.TeamOrder {
		t := s.Teams[id]
		views = append(views, TeamView{
			ID:                t.ID,
			Name:              t.Name,
			Purse:             t.Purse,
			SquadSize:         len(t.Squad),
			IsEliminated:      t.IsEliminated,
			IsFinishedBidding: t.IsFinishedBidding,
			Submitted11:       t.Submitted11,
		})
	}
	return TeamListPayload{HostID: s.HostID, Teams: views}
}

func (s *State) teamListEvent() Event {
	return broadcast(EvtTeamList, s.teamViews())
}

func (t *Team) isEligibleBidder() bool {
	return !t.IsEliminated && !t.IsFinishedBidding && len(t.Squad) < MaxSquadSize
}

func (s *State) eligibleBidders() []string {
	var ids []string
	for _, id := range s.TeamOrder {
		if s.Teams[id].isEligibleBidder() {
			ids = append(ids, id)
		}
	}
	return ids
}

// checkEliminations is run after every purse or squad mutation. Elimination
// is sticky and never reverses.
func (s *State) checkEliminations() bool {
	changed := false
	for _, id := range s.TeamOrder {
		t := s.Teams[id]
		if t.IsEliminated {
			continue
		}
		if t.Purse < MinIncrement && len(t.Squad) < MinSquadSize {
			t.IsEliminated = true
			delete(s.Auction.SkippedBy, id)
			changed = true
		}
	}
	return changed
}

// AddTeam handles join-room. Idempotent for a participant that already has
// a team; new teams form only while the room is in the lobby.
func (s *State) AddTeam(id, name string) []Event {
	if id == "" {
		return nil
	}
	s.touch()
	if t, ok := s.Teams[id]; ok {
		list := s.teamViews()
		var view TeamView
		for _, v := range list.Teams {
			if v.ID == t.ID {
				view = v
			}
		}
		return []Event{
			unicast(EvtRoomJoined, id, JoinedPayload{RoomID: s.Code, HostID: s.HostID, Team: view}),
			s.teamListEvent(),
		}
	}
	if s.Auction.Phase != PhaseLobby {
		return nil
	}
	t := &Team{ID: id, Name: name, Purse: s.Config.StartingPurse, Squad: []Player{}}
	s.Teams[id] = t
	s.TeamOrder = append(s.TeamOrder, id)
	return []Event{
		unicast(EvtRoomJoined, id, JoinedPayload{RoomID: s.Code, HostID: s.HostID, Team: TeamView{ID: id, Name: name, Purse: t.Purse}}),
		s.teamListEvent(),
	}
}

// RemoveTeam handles leave-room. Returns empty=true when the last team is
// gone and the room should be torn down.
func (s *State) RemoveTeam(id string) (events []Event, empty bool) {
	if _, ok := s.Teams[id]; !ok {
		return nil, false
	}
	s.touch()
	delete(s.Teams, id)
	s.TeamOrder = slices.DeleteFunc(s.TeamOrder, func(tid string) bool { return tid == id })
	delete(s.Auction.SkippedBy, id)
	if s.Auction.CurrentBidderID == id {
		// The bid stands (currentBid never decreases) but the lot has no
		// leader anymore, so the skip set resets with it.
		s.Auction.CurrentBidderID = ""
		clear(s.Auction.SkippedBy)
	}
	if len(s.Teams) == 0 {
		return nil, true
	}
	if s.HostID == id {
		s.HostID = s.TeamOrder[0]
	}
	events = append(events, s.teamListEvent())
	events = append(events, s.recheckLot()...)
	return events, false
}

// StartAuction is host-only and a no-op once the room has left the lobby.
func (s *State) StartAuction(callerID string) []Event {
	if callerID != s.HostID || s.Auction.Phase != PhaseLobby {
		return nil
	}
	s.touch()
	s.Auction.Phase = PhaseAuction
	events := []Event{broadcast(EvtAuctionStarted, s.teamViews())}
	return append(events, s.openNextLot()...)
}

// AdvanceLot opens the next lot after the grace delay. A late fire against
// an already-open lot or a finished auction is a no-op.
func (s *State) AdvanceLot() []Event {
	if s.Auction.Phase != PhaseAuction || s.Auction.BiddingOpen {
		return nil
	}
	return s.openNextLot()
}

func (s *State) openNextLot() []Event {
	a := s.Auction
	if a.CurrentPlayerIndex >= len(a.PlayerPool) || len(s.eligibleBidders()) == 0 {
		return s.enterSelection()
	}
	p := a.PlayerPool[a.CurrentPlayerIndex]
	a.CurrentBid = p.BasePrice
	a.CurrentBidderID = ""
	clear(a.SkippedBy)
	a.TimeLeft = CountdownSeconds
	a.BiddingOpen = true
	return []Event{broadcast(EvtNewLot, LotPayload{Player: p, OpeningBid: p.BasePrice, TimeLeft: a.TimeLeft})}
}

// PlaceBid validates and applies a bid. Every failed precondition is a
// silent rejection: invalid bids are treated as stale client state.
func (s *State) PlaceBid(teamID string, amount float64) []Event {
	a := s.Auction
	if a.Phase != PhaseAuction || !a.BiddingOpen {
		return nil
	}
	t, ok := s.Teams[teamID]
	if !ok || t.IsEliminated || t.IsFinishedBidding {
		return nil
	}
	if len(t.Squad) >= MaxSquadSize {
		return nil
	}
	amount = round2(amount)
	if amount < a.CurrentBid+MinIncrement-eps {
		return nil
	}
	if amount > t.Purse+eps {
		return nil
	}
	lot := a.PlayerPool[a.CurrentPlayerIndex]
	if lot.Overseas && t.overseasCount() >= OverseasSquadCap {
		return nil
	}
	s.touch()
	a.CurrentBid = amount
	a.CurrentBidderID = teamID
	clear(a.SkippedBy)
	a.TimeLeft = CountdownSeconds
	return []Event{broadcast(EvtBidUpdated, BidPayload{Amount: amount, TeamID: teamID, TeamName: t.Name})}
}

// Skip registers a skip vote. The current leader cannot vote against their
// own lot; quorum already discounts them.
func (s *State) Skip(teamID string) []Event {
	a := s.Auction
	if a.Phase != PhaseAuction || !a.BiddingOpen {
		return nil
	}
	t, ok := s.Teams[teamID]
	if !ok || !t.isEligibleBidder() || teamID == a.CurrentBidderID {
		return nil
	}
	s.touch()
	a.SkippedBy[teamID] = true
	return s.recheckLot()
}

// OptOut marks a team as finished bidding. Only allowed once the squad is
// already playable; sticky afterwards.
func (s *State) OptOut(teamID string) []Event {
	t, ok := s.Teams[teamID]
	if !ok || t.IsEliminated || t.IsFinishedBidding {
		return nil
	}
	if len(t.Squad) < MinSquadSize {
		return nil
	}
	s.touch()
	t.IsFinishedBidding = true
	delete(s.Auction.SkippedBy, teamID)
	events := []Event{s.teamListEvent()}
	return append(events, s.recheckLot()...)
}

// recheckLot re-evaluates an open lot after the eligible-bidder set or the
// skip set changed: no bidders left resolves immediately, as does a skip
// quorum (eligible count minus one when a leader exists).
func (s *State) recheckLot() []Event {
	a := s.Auction
	if a.Phase != PhaseAuction || !a.BiddingOpen {
		return nil
	}
	eligible := s.eligibleBidders()
	if len(eligible) == 0 {
		return s.resolveLot()
	}
	quorum := len(eligible)
	if a.CurrentBidderID != "" {
		quorum--
	}
	if len(a.SkippedBy) >= quorum {
		return s.resolveLot()
	}
	return nil
}

// Tick is the one-second countdown heartbeat while a lot is open.
func (s *State) Tick() []Event {
	a := s.Auction
	if a.Phase != PhaseAuction || !a.BiddingOpen {
		return nil
	}
	a.TimeLeft--
	if a.TimeLeft > 0 {
		return []Event{broadcast(EvtCountdown, TickPayload{TimeLeft: a.TimeLeft})}
	}
	return s.resolveLot()
}

// resolveLot closes the current lot exactly once: sold to the leader if one
// exists, unsold otherwise. The open flag guards late timers and racy events.
func (s *State) resolveLot() []Event {
	a := s.Auction
	if a.Phase != PhaseAuction || !a.BiddingOpen {
		return nil
	}
	s.touch()
	a.BiddingOpen = false
	a.TimeLeft = 0

	p := &a.PlayerPool[a.CurrentPlayerIndex]
	var events []Event
	if winner, ok := s.Teams[a.CurrentBidderID]; ok && a.CurrentBidderID != "" {
		winner.Purse = round2(winner.Purse - a.CurrentBid)
		p.SoldPrice = a.CurrentBid
		winner.Squad = append(winner.Squad, *p)
		s.checkEliminations()
		events = append(events,
			broadcast(EvtLotSold, SalePayload{
				Player:    *p,
				TeamID:    winner.ID,
				TeamName:  winner.Name,
				Price:     a.CurrentBid,
				PurseLeft: winner.Purse,
			}),
			s.teamListEvent(),
		)
	} else {
		events = append(events, broadcast(EvtLotUnsold, UnsoldPayload{Player: *p}))
	}

	a.CurrentPlayerIndex++
	a.CurrentBid = 0
	a.CurrentBidderID = ""
	clear(a.SkippedBy)

	if a.CurrentPlayerIndex >= len(a.PlayerPool) || len(s.eligibleBidders()) == 0 {
		events = append(events, s.enterSelection()...)
	}
	return events
}

func (s *State) enterSelection() []Event {
	a := s.Auction
	if a.Phase != PhaseAuction {
		return nil
	}
	a.Phase = PhaseSelection
	a.BiddingOpen = false
	a.TimeLeft = 0
	return []Event{broadcast(EvtSelectionStarted, s.teamViews())}
}

func (s *State) enterResult() []Event {
	s.Auction.Phase = PhaseResult

	var ranking []Standing
	for _, id := range s.TeamOrder {
		t := s.Teams[id]
		if t.IsEliminated {
			continue
		}
		ranking = append(ranking, Standing{TeamID: t.ID, TeamName: t.Name, Score: t.TotalScore})
	}
	slices.SortStableFunc(ranking, func(a, b Standing) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	payload := ResultPayload{Ranking: ranking}
	if len(ranking) > 0 {
		payload.WinnerID = ranking[0].TeamID
		payload.WinnerName = ranking[0].TeamName
	}
	return []Event{broadcast(EvtGameOver, payload)}
}

// Resync builds the unicast catch-up payload for a reconnecting participant.
func (s *State) Resync(teamID string) []Event {
	t, ok := s.Teams[teamID]
	if !ok {
		return nil
	}
	a := s.Auction
	payload := ResyncPayload{
		RoomID:          s.Code,
		HostID:          s.HostID,
		Phase:           a.Phase,
		CurrentBid:      a.CurrentBid,
		CurrentBidderID: a.CurrentBidderID,
		TimeLeft:        a.TimeLeft,
		BiddingOpen:     a.BiddingOpen,
		Team:            t,
	}
	if a.Phase == PhaseAuction && a.CurrentPlayerIndex < len(a.PlayerPool) {
		lot := a.PlayerPool[a.CurrentPlayerIndex]
		payload.Lot = &lot
	}
	return []Event{unicast(EvtResync, teamID, payload)}
}
