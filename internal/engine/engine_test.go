package engine

import "testing"

func player(id string, base float64) Player {
	return Player{ID: id, Name: "P-" + id, Role: "Batsman", BasePrice: base, Rating: 80}
}

func overseasPlayer(id string, base float64) Player {
	p := player(id, base)
	p.Overseas = true
	return p
}

func newTestState(pool []Player, purse float64) *State {
	return NewState("ABC123", "host", "Host XI", purse, pool)
}

func containsEvent(events []Event, t EventType) bool {
	for _, ev := range events {
		if ev.Type == t {
			return true
		}
	}
	return false
}

func drainTicks(s *State) []Event {
	for {
		events := s.Tick()
		if containsEvent(events, EvtLotSold) || containsEvent(events, EvtLotUnsold) || len(events) == 0 {
			return events
		}
	}
}

func TestStartAuction_HostOnly(t *testing.T) {
	s := newTestState([]Player{player("p1", 2)}, 100)
	s.AddTeam("guest", "Guest XI")

	if events := s.StartAuction("guest"); events != nil {
		t.Fatalf("non-host start produced events: %+v", events)
	}
	if s.Auction.Phase != PhaseLobby {
		t.Fatalf("phase moved without host: %v", s.Auction.Phase)
	}

	events := s.StartAuction("host")
	if !containsEvent(events, EvtAuctionStarted) || !containsEvent(events, EvtNewLot) {
		t.Fatalf("expected start + first lot, got %+v", events)
	}
	if s.Auction.Phase != PhaseAuction || !s.Auction.BiddingOpen {
		t.Fatalf("expected open auction, got phase=%v open=%v", s.Auction.Phase, s.Auction.BiddingOpen)
	}
	if s.Auction.CurrentBid != 2 {
		t.Fatalf("opening bid should be base price, got %v", s.Auction.CurrentBid)
	}

	// Starting twice is a no-op.
	if events := s.StartAuction("host"); events != nil {
		t.Fatalf("second start produced events: %+v", events)
	}
}

func TestPlaceBid_Preconditions(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(s *State)
		bidder string
		amount float64
	}{
		{
			name:   "below min increment",
			setup:  func(s *State) {},
			bidder: "guest",
			amount: 2.1,
		},
		{
			name:   "exceeds purse",
			setup:  func(s *State) { s.Teams["guest"].Purse = 2 },
			bidder: "guest",
			amount: 2.5,
		},
		{
			name:   "eliminated team",
			setup:  func(s *State) { s.Teams["guest"].IsEliminated = true },
			bidder: "guest",
			amount: 3,
		},
		{
			name:   "opted-out team",
			setup:  func(s *State) { s.Teams["guest"].IsFinishedBidding = true },
			bidder: "guest",
			amount: 3,
		},
		{
			name:   "unknown team",
			setup:  func(s *State) {},
			bidder: "stranger",
			amount: 3,
		},
		{
			name: "squad full",
			setup: func(s *State) {
				for i := 0; i < MaxSquadSize; i++ {
					s.Teams["guest"].Squad = append(s.Teams["guest"].Squad, player("x", 1))
				}
			},
			bidder: "guest",
			amount: 3,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestState([]Player{player("p1", 2)}, 100)
			s.AddTeam("guest", "Guest XI")
			s.StartAuction("host")
			tc.setup(s)

			if events := s.PlaceBid(tc.bidder, tc.amount); events != nil {
				t.Fatalf("expected silent rejection, got %+v", events)
			}
			if s.Auction.CurrentBidderID != "" {
				t.Fatalf("rejected bid must not set a leader")
			}
		})
	}
}

func TestPlaceBid_OverseasSquadCap(t *testing.T) {
	s := newTestState([]Player{overseasPlayer("p1", 2)}, 400)
	s.AddTeam("guest", "Guest XI")
	for i := 0; i < OverseasSquadCap; i++ {
		s.Teams["guest"].Squad = append(s.Teams["guest"].Squad, overseasPlayer("o", 1))
	}
	s.StartAuction("host")

	if events := s.PlaceBid("guest", 3); events != nil {
		t.Fatalf("overseas cap must reject, got %+v", events)
	}
	if events := s.PlaceBid("host", 3); !containsEvent(events, EvtBidUpdated) {
		t.Fatalf("host under the cap should bid fine, got %+v", events)
	}
}

func TestPlaceBid_AcceptRestartsWindowAndClearsSkips(t *testing.T) {
	s := newTestState([]Player{player("p1", 2)}, 100)
	s.AddTeam("guest", "Guest XI")
	s.AddTeam("third", "Third XI")
	s.StartAuction("host")

	s.Skip("third")
	s.Tick()
	s.Tick()

	events := s.PlaceBid("guest", 2.25)
	if !containsEvent(events, EvtBidUpdated) {
		t.Fatalf("expected bid-updated, got %+v", events)
	}
	if s.Auction.CurrentBid != 2.25 || s.Auction.CurrentBidderID != "guest" {
		t.Fatalf("leader not recorded: bid=%v leader=%q", s.Auction.CurrentBid, s.Auction.CurrentBidderID)
	}
	if len(s.Auction.SkippedBy) != 0 {
		t.Fatalf("skip set must clear when the leader changes")
	}
	if s.Auction.TimeLeft != CountdownSeconds {
		t.Fatalf("countdown must restart to the default window, got %d", s.Auction.TimeLeft)
	}
}

// Purse 100, base price 0.2, two teams outbidding each other; the countdown
// expires and the player goes to the last leader.
func TestCountdownExpiry_SellsToLeader(t *testing.T) {
	s := newTestState([]Player{player("p1", 0.2), player("p2", 0.2)}, 100)
	s.AddTeam("teamB", "Team B")
	s.StartAuction("host")

	if events := s.PlaceBid("host", 0.45); !containsEvent(events, EvtBidUpdated) {
		t.Fatalf("0.45 over base 0.2 is a legal opening bid")
	}
	if events := s.PlaceBid("teamB", 0.5); events != nil {
		t.Fatalf("0.5 is under 0.45 plus the increment, must be rejected")
	}
	if events := s.PlaceBid("teamB", 0.7); !containsEvent(events, EvtBidUpdated) {
		t.Fatalf("0.7 over 0.45 meets the increment")
	}

	events := drainTicks(s)
	if !containsEvent(events, EvtLotSold) {
		t.Fatalf("expected lot-sold, got %+v", events)
	}
	b := s.Teams["teamB"]
	if b.Purse != 99.3 {
		t.Fatalf("purse after sale = %v, want 99.3", b.Purse)
	}
	if len(b.Squad) != 1 || b.Squad[0].SoldPrice != 0.7 {
		t.Fatalf("squad after sale = %+v", b.Squad)
	}
	if s.Auction.CurrentPlayerIndex != 1 || s.Auction.BiddingOpen {
		t.Fatalf("lot must close and cursor advance: idx=%d open=%v", s.Auction.CurrentPlayerIndex, s.Auction.BiddingOpen)
	}
}

func TestTick_BroadcastsRemaining(t *testing.T) {
	s := newTestState([]Player{player("p1", 2)}, 100)
	s.AddTeam("guest", "Guest XI")
	s.StartAuction("host")

	events := s.Tick()
	if !containsEvent(events, EvtCountdown) {
		t.Fatalf("expected countdown tick, got %+v", events)
	}
	if s.Auction.TimeLeft != CountdownSeconds-1 {
		t.Fatalf("timeLeft = %d, want %d", s.Auction.TimeLeft, CountdownSeconds-1)
	}
}

func TestSkip_QuorumWithoutLeader(t *testing.T) {
	s := newTestState([]Player{player("p1", 2), player("p2", 2)}, 100)
	s.AddTeam("b", "B")
	s.AddTeam("c", "C")
	s.StartAuction("host")

	if events := s.Skip("host"); events != nil {
		t.Fatalf("one of three skips should not resolve, got %+v", events)
	}
	if events := s.Skip("b"); events != nil {
		t.Fatalf("two of three skips should not resolve, got %+v", events)
	}
	events := s.Skip("c")
	if !containsEvent(events, EvtLotUnsold) {
		t.Fatalf("full skip quorum with no leader resolves unsold, got %+v", events)
	}
}

func TestSkip_QuorumDiscountsLeader(t *testing.T) {
	s := newTestState([]Player{player("p1", 2), player("p2", 2)}, 100)
	s.AddTeam("b", "B")
	s.AddTeam("c", "C")
	s.StartAuction("host")

	s.PlaceBid("host", 2.5)

	// Leader skip is a no-op.
	if events := s.Skip("host"); events != nil {
		t.Fatalf("leader cannot skip their own lot, got %+v", events)
	}
	if events := s.Skip("b"); events != nil {
		t.Fatalf("one of two non-leader skips should not resolve, got %+v", events)
	}
	events := s.Skip("c")
	if !containsEvent(events, EvtLotSold) {
		t.Fatalf("quorum of non-leaders sells to the leader, got %+v", events)
	}
	if s.Teams["host"].Purse != 97.5 {
		t.Fatalf("winner purse = %v, want 97.5", s.Teams["host"].Purse)
	}
}

func TestSkip_Idempotent(t *testing.T) {
	s := newTestState([]Player{player("p1", 2), player("p2", 2)}, 100)
	s.AddTeam("b", "B")
	s.AddTeam("c", "C")
	s.StartAuction("host")

	s.Skip("b")
	s.Skip("b")
	if len(s.Auction.SkippedBy) != 1 {
		t.Fatalf("repeated skip must not double count: %v", s.Auction.SkippedBy)
	}
	if s.Auction.BiddingOpen != true {
		t.Fatalf("lot must stay open below quorum")
	}
}

func TestElimination_StickyAndMonotonic(t *testing.T) {
	s := newTestState([]Player{player("p1", 2), player("p2", 2)}, 50)
	s.AddTeam("b", "B")
	s.StartAuction("host")

	// Host blows nearly the whole purse on one player.
	s.PlaceBid("host", 49.9)
	drainTicks(s)

	host := s.Teams["host"]
	if host.Purse != 0.1 {
		t.Fatalf("purse = %v, want 0.1", host.Purse)
	}
	if !host.IsEliminated {
		t.Fatalf("purse below increment with a short squad must eliminate")
	}

	// Nothing un-eliminates: a new lot, ticks, even a purse top-up.
	host.Purse = 100
	s.checkEliminations()
	if !host.IsEliminated {
		t.Fatalf("elimination must never reverse")
	}
	if events := s.PlaceBid("host", 3); events != nil {
		t.Fatalf("eliminated team cannot bid")
	}
}

func TestOptOut_RequiresPlayableSquad(t *testing.T) {
	s := newTestState([]Player{player("p1", 2)}, 100)
	s.AddTeam("b", "B")
	s.StartAuction("host")

	if events := s.OptOut("b"); events != nil {
		t.Fatalf("opt-out below the playable minimum must be rejected")
	}

	for i := 0; i < MinSquadSize; i++ {
		s.Teams["b"].Squad = append(s.Teams["b"].Squad, player("x", 1))
	}
	events := s.OptOut("b")
	if !containsEvent(events, EvtTeamList) {
		t.Fatalf("expected team-list update, got %+v", events)
	}
	if !s.Teams["b"].IsFinishedBidding {
		t.Fatalf("opt-out must stick")
	}
	// Sticky: a second opt-out is a no-op.
	if events := s.OptOut("b"); events != nil {
		t.Fatalf("repeat opt-out should be silent, got %+v", events)
	}
}

// Spec'd scenario: the last eligible bidders drop away with a lot open and
// a leader standing; the lot sells to the leader and the auction ends.
func TestNoEligibleBidders_SellsOpenLotThenSelection(t *testing.T) {
	s := newTestState([]Player{player("p1", 2), player("p2", 2)}, 400)
	s.AddTeam("b", "B")
	for i := 0; i < MaxSquadSize-1; i++ {
		s.Teams["host"].Squad = append(s.Teams["host"].Squad, player("x", 1))
	}
	for i := 0; i < MinSquadSize; i++ {
		s.Teams["b"].Squad = append(s.Teams["b"].Squad, player("y", 1))
	}
	s.StartAuction("host")

	s.PlaceBid("host", 2.5)
	events := s.OptOut("b")

	if !containsEvent(events, EvtLotSold) {
		t.Fatalf("open lot must resolve to the leader, got %+v", events)
	}
	if !containsEvent(events, EvtSelectionStarted) {
		t.Fatalf("no bidders left must end the auction, got %+v", events)
	}
	if s.Auction.Phase != PhaseSelection {
		t.Fatalf("phase = %v, want SELECTION", s.Auction.Phase)
	}
	if got := len(s.Teams["host"].Squad); got != MaxSquadSize {
		t.Fatalf("winner squad = %d, want %d", got, MaxSquadSize)
	}
}

func TestPoolExhausted_EntersSelection(t *testing.T) {
	s := newTestState([]Player{player("p1", 2)}, 100)
	s.AddTeam("b", "B")
	s.StartAuction("host")

	events := drainTicks(s)
	if !containsEvent(events, EvtLotUnsold) || !containsEvent(events, EvtSelectionStarted) {
		t.Fatalf("expected unsold + selection on pool exhaustion, got %+v", events)
	}
}

func TestResolveLot_Idempotent(t *testing.T) {
	s := newTestState([]Player{player("p1", 2), player("p2", 2)}, 100)
	s.AddTeam("b", "B")
	s.StartAuction("host")

	if events := s.resolveLot(); len(events) == 0 {
		t.Fatalf("first resolution must produce events")
	}
	if events := s.resolveLot(); events != nil {
		t.Fatalf("second resolution must be a no-op, got %+v", events)
	}
	// A stale grace fire against an open lot is equally inert.
	s.AdvanceLot()
	if events := s.AdvanceLot(); events != nil {
		t.Fatalf("advance against an open lot must be a no-op, got %+v", events)
	}
}

func TestAddTeam_IdempotentJoin(t *testing.T) {
	s := newTestState([]Player{player("p1", 2)}, 100)
	s.AddTeam("b", "B")
	s.Teams["b"].Purse = 42

	events := s.AddTeam("b", "Renamed")
	if !containsEvent(events, EvtRoomJoined) {
		t.Fatalf("rejoin by id must ack, got %+v", events)
	}
	if s.Teams["b"].Purse != 42 || s.Teams["b"].Name != "B" {
		t.Fatalf("idempotent join must not reset the team: %+v", s.Teams["b"])
	}
}

func TestAddTeam_RejectedAfterLobby(t *testing.T) {
	s := newTestState([]Player{player("p1", 2)}, 100)
	s.StartAuction("host")

	if events := s.AddTeam("late", "Late XI"); events != nil {
		t.Fatalf("stranger joining mid-auction must be dropped, got %+v", events)
	}
	if _, ok := s.Teams["late"]; ok {
		t.Fatalf("no team must form after the lobby closes")
	}
}

func TestRemoveTeam_HostPromotionByCreationOrder(t *testing.T) {
	s := newTestState([]Player{player("p1", 2)}, 100)
	s.AddTeam("b", "B")
	s.AddTeam("c", "C")

	events, empty := s.RemoveTeam("host")
	if empty {
		t.Fatalf("two teams remain")
	}
	if s.HostID != "b" {
		t.Fatalf("host promotion must follow creation order, got %q", s.HostID)
	}
	if !containsEvent(events, EvtTeamList) {
		t.Fatalf("expected team-list broadcast, got %+v", events)
	}

	s.RemoveTeam("b")
	if _, empty := s.RemoveTeam("c"); !empty {
		t.Fatalf("last leave must report an empty room")
	}
}

func TestRemoveTeam_LeaderLeavingClearsLeader(t *testing.T) {
	s := newTestState([]Player{player("p1", 2), player("p2", 2)}, 100)
	s.AddTeam("b", "B")
	s.AddTeam("c", "C")
	s.StartAuction("host")

	s.PlaceBid("b", 2.5)
	s.Skip("c")
	s.RemoveTeam("b")

	if s.Auction.CurrentBidderID != "" {
		t.Fatalf("departed leader must be cleared")
	}
	if len(s.Auction.SkippedBy) != 0 {
		t.Fatalf("skip set must reset when the leader changes")
	}
	if s.Auction.CurrentBid != 2.5 {
		t.Fatalf("current bid never decreases, got %v", s.Auction.CurrentBid)
	}
}
