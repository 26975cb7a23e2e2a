// Package event defines the raw protocol events emitted by the game-client
// bridge and the classifier that separates them from unrelated traffic.
package event

import "encoding/json"

// Kind represents a protocol event kind with type safety.
type Kind string

// Kind constants for upstream protocol events. Session/meta kinds update
// ambient context; deal/round/action/result kinds form hand-event-groups.
const (
	KindEntryQueued    Kind = "entry_queued"
	KindSessionDetails Kind = "session_details"
	KindSeatsAssigned  Kind = "seats_assigned"
	KindPlayerJoin     Kind = "player_join"
	KindDeal           Kind = "deal"
	KindRound          Kind = "round"
	KindAction         Kind = "action"
	KindResult         Kind = "result"
)

// String returns the string representation of the event kind.
func (k Kind) String() string {
	return string(k)
}

// Progress is the table state snapshot attached to deal, round and action
// events: pot sizes, whose turn is next and what they may legally do.
type Progress struct {
	Pot            int      `json:"pot"`
	SidePots       []int    `json:"side_pots,omitempty"`
	NextActionSeat int      `json:"next_action_seat"` // -1 when no actor is pending
	LegalActions   []string `json:"legal_actions,omitempty"`
	MinBet         int      `json:"min_bet,omitempty"`
}

// SeatState is one seat's betting state as carried on deal and round events.
type SeatState struct {
	Seat      int `json:"seat"`
	BetStatus int `json:"bet_status"` // see BetStatus* constants
	BetChips  int `json:"bet_chips"`
	Stack     int `json:"stack"`
}

// BetStatus values. Folded and busted players can no longer act.
const (
	BetStatusActive  = 1
	BetStatusFolded  = 2
	BetStatusAllIn   = 3
	BetStatusSatOut  = 4
)

// CanAct reports whether the seat is still contesting the pot.
func (s SeatState) CanAct() bool {
	return s.BetStatus == BetStatusActive || s.BetStatus == BetStatusAllIn
}

// DealPayload starts a hand: the table layout, the blinds and the hero's
// seat if the viewing player is dealt in.
type DealPayload struct {
	SeatPlayers   []int64     `json:"seat_players"` // seat -> player id, -1 empty
	SmallBlind    int         `json:"small_blind"`
	BigBlind      int         `json:"big_blind"`
	ButtonSeat    int         `json:"button_seat"`
	SBSeat        int         `json:"sb_seat"`
	BBSeat        int         `json:"bb_seat"`
	HeroSeat      int         `json:"hero_seat"` // -1 when observing only
	HeroHoleCards []int       `json:"hero_hole_cards,omitempty"`
	Seats         []SeatState `json:"seats,omitempty"`
	Progress      Progress    `json:"progress"`
}

// RoundPayload announces a new street with its newly revealed cards.
type RoundPayload struct {
	Phase          string      `json:"phase"` // flop, turn, river
	CommunityCards []int       `json:"community_cards,omitempty"`
	Seats          []SeatState `json:"seats,omitempty"`
	Progress       Progress    `json:"progress"`
}

// ActionPayload is one player's decision.
type ActionPayload struct {
	Seat       int      `json:"seat"`
	ActionType string   `json:"action_type"` // check, bet, fold, call, raise, allin
	BetChips   int      `json:"bet_chips"`
	Progress   Progress `json:"progress"`
}

// ResultEntry is one contestant's outcome in the terminal result event.
type ResultEntry struct {
	PlayerID   int64 `json:"player_id"`
	Place      int   `json:"place"` // 1 = won the pot
	HandRank   int   `json:"hand_rank,omitempty"`
	Reward     int   `json:"reward,omitempty"`
	HoleCards  []int `json:"hole_cards,omitempty"`
	BoardCards []int `json:"board_cards,omitempty"`
}

// ResultPayload terminates a hand and assigns its id.
type ResultPayload struct {
	HandID         int64         `json:"hand_id"`
	CommunityCards []int         `json:"community_cards,omitempty"`
	Pot            int           `json:"pot"`
	SidePots       []int         `json:"side_pots,omitempty"`
	Results        []ResultEntry `json:"results"`
}

// SessionDetailsPayload refreshes the ambient session context.
type SessionDetailsPayload struct {
	SessionID  string `json:"session_id,omitempty"`
	BattleType int    `json:"battle_type"`
	Name       string `json:"name,omitempty"`
}

// TableUser is a player known to be at the table.
type TableUser struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
	Rank     string `json:"rank,omitempty"`
}

// SeatsAssignedPayload announces the table's player roster.
type SeatsAssignedPayload struct {
	SeatPlayers []int64     `json:"seat_players"`
	TableUsers  []TableUser `json:"table_users,omitempty"`
}

// PlayerJoinPayload announces a single player sitting down mid-session.
type PlayerJoinPayload struct {
	User TableUser `json:"user"`
	Seat int       `json:"seat"`
}

// EntryQueuedPayload announces the session the client queued into.
type EntryQueuedPayload struct {
	SessionID  string `json:"session_id,omitempty"`
	BattleType int    `json:"battle_type"`
}

// Event is one decoded upstream event. Exactly one payload pointer is
// non-nil, matching Kind.
type Event struct {
	Kind      Kind  `json:"kind"`
	Timestamp int64 `json:"ts"` // unix milliseconds

	Deal           *DealPayload           `json:"deal,omitempty"`
	Round          *RoundPayload          `json:"round,omitempty"`
	Action         *ActionPayload         `json:"action,omitempty"`
	Result         *ResultPayload         `json:"result,omitempty"`
	SessionDetails *SessionDetailsPayload `json:"session_details,omitempty"`
	SeatsAssigned  *SeatsAssignedPayload  `json:"seats_assigned,omitempty"`
	PlayerJoin     *PlayerJoinPayload     `json:"player_join,omitempty"`
	EntryQueued    *EntryQueuedPayload    `json:"entry_queued,omitempty"`
}

// Decode parses one wire envelope. Unknown kinds decode successfully and are
// filtered by the classifier, never rejected here.
func Decode(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Encode serializes an event to its wire envelope.
func Encode(ev *Event) ([]byte, error) {
	return json.Marshal(ev)
}
