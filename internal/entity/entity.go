// Package entity defines the normalized records derived from the raw event
// stream: one Hand per dealt hand, one Phase per betting street, one Action
// per player decision. These are the rows the record store persists and the
// statistic definitions aggregate over.
package entity

// EmptySeat is the player id recorded for an unoccupied seat.
const EmptySeat int64 = -1

// Phase represents a betting street within a hand.
type Phase int

const (
	Preflop Phase = iota
	Flop
	Turn
	River
	Showdown
)

func (p Phase) String() string {
	return [...]string{"preflop", "flop", "turn", "river", "showdown"}[p]
}

// ActionType represents a normalized player action. AllIn is only ever a raw
// wire value; the converter resolves it to Bet, Raise or Call before an
// Action is stored.
type ActionType int

const (
	Check ActionType = iota
	Bet
	Fold
	Call
	Raise
	AllIn
)

func (a ActionType) String() string {
	return [...]string{"check", "bet", "fold", "call", "raise", "allin"}[a]
}

// Aggressive reports whether the action puts in a bet or raise.
func (a ActionType) Aggressive() bool {
	return a == Bet || a == Raise
}

// Position is a seat label relative to the button: blind positions are
// negative, the button is zero, and values increase toward earlier
// positions.
type Position int

const (
	PositionSB  Position = -2
	PositionBB  Position = -1
	PositionBTN Position = 0
	PositionCO  Position = 1
	PositionHJ  Position = 2
	PositionUTG Position = 3
)

func (p Position) String() string {
	switch p {
	case PositionSB:
		return "SB"
	case PositionBB:
		return "BB"
	case PositionBTN:
		return "BTN"
	case PositionCO:
		return "CO"
	case PositionHJ:
		return "HJ"
	default:
		return "UTG"
	}
}

// ActionTag marks a situational detail detected on an Action during
// conversion. Tags drive the opportunity/occurrence accounting in the
// statistic definitions.
type ActionTag string

const (
	TagVPIP          ActionTag = "vpip"
	TagPFR           ActionTag = "pfr"
	TagAllIn         ActionTag = "allin"
	TagThreeBetOpp   ActionTag = "3bet_chance"
	TagThreeBet      ActionTag = "3bet"
	TagThreeBetFOpp  ActionTag = "3bet_fold_chance"
	TagThreeBetFold  ActionTag = "3bet_fold"
	TagCBetOpp       ActionTag = "cbet_chance"
	TagCBet          ActionTag = "cbet"
	TagCBetFoldOpp   ActionTag = "cbet_fold_chance"
	TagCBetFold      ActionTag = "cbet_fold"
	TagRiverCall     ActionTag = "river_call"
	TagRiverCallWon  ActionTag = "river_call_won"
)

// SessionRef identifies the session a hand was played in.
type SessionRef struct {
	ID         string `json:"id"`
	BattleType int    `json:"battle_type"`
	Name       string `json:"name"`
}

// Result records one player's outcome in a completed hand.
type Result struct {
	PlayerID    int64   `json:"player_id"`
	Place       int     `json:"place"`
	HandRank    int     `json:"hand_rank"`
	RewardChips int     `json:"reward_chips"`
	HoleCards   []int   `json:"hole_cards,omitempty"`
	BoardCards  []int   `json:"board_cards,omitempty"`
}

// Hand is one played hand. ID is assigned by the terminal result event; the
// converter never emits a Hand without one.
type Hand struct {
	ID          int64      `json:"id"`
	Timestamp   int64      `json:"ts"`
	SeatPlayers []int64    `json:"seat_players"` // seat index -> player id, EmptySeat when vacant
	Winners     []int64    `json:"winners"`
	SmallBlind  int        `json:"small_blind"`
	BigBlind    int        `json:"big_blind"`
	Session     SessionRef `json:"session"`
	Results     []Result   `json:"results"`
}

// PhaseRecord is one betting street of a hand. PlayerIDs lists the players
// still active entering the street in seat order; CommunityCards is the
// cumulative board visible as of the street.
type PhaseRecord struct {
	HandID         int64   `json:"hand_id"`
	Phase          Phase   `json:"phase"`
	PlayerIDs      []int64 `json:"player_ids"`
	CommunityCards []int   `json:"community_cards"`
}

// Action is one player decision. Index is global within the hand.
type Action struct {
	HandID   int64       `json:"hand_id"`
	Index    int         `json:"index"`
	PlayerID int64       `json:"player_id"`
	Phase    Phase       `json:"phase"`
	Type     ActionType  `json:"type"`
	BetChips int         `json:"bet_chips"`
	Pot      int         `json:"pot"`
	SidePots []int       `json:"side_pots,omitempty"`
	Position Position    `json:"position"`
	Tags     []ActionTag `json:"tags,omitempty"`
}

// HasTag reports whether the action carries the given tag.
func (a *Action) HasTag(tag ActionTag) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends a tag if not already present.
func (a *Action) AddTag(tag ActionTag) {
	if !a.HasTag(tag) {
		a.Tags = append(a.Tags, tag)
	}
}
