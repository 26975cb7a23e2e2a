package stats

import "github.com/lox/pokerhud/internal/entity"

// Built-in stat ids.
const (
	StatHands        = "hands"
	StatVPIP         = "vpip"
	StatPFR          = "pfr"
	StatThreeBet     = "3bet"
	StatThreeBetFold = "3bet_fold"
	StatCBet         = "cbet"
	StatCBetFold     = "cbet_fold"
	StatAF           = "af"
	StatAFq          = "afq"
	StatWTSD         = "wtsd"
	StatWWSF         = "wwsf"
	StatWSD          = "wsd"
	StatRiverCall    = "river_call"
)

// BuiltinDefinitions returns the standard HUD metrics in display order. The
// application entry point registers these explicitly at startup; nothing
// self-registers.
func BuiltinDefinitions() []Definition {
	return []Definition{
		handsDefinition(),
		vpipDefinition(),
		pfrDefinition(),
		threeBetDefinition(),
		threeBetFoldDefinition(),
		cbetDefinition(),
		cbetFoldDefinition(),
		aggressionFactorDefinition(),
		aggressionFrequencyDefinition(),
		wtsdDefinition(),
		wwsfDefinition(),
		wsdDefinition(),
		riverCallDefinition(),
	}
}

func handsDefinition() Definition {
	return Definition{
		ID:    StatHands,
		Name:  "Hands",
		Order: 1,
		Calculate: func(ctx *CalcContext) (Value, error) {
			return len(ctx.Hands), nil
		},
	}
}

func vpipDefinition() Definition {
	return Definition{
		ID:    StatVPIP,
		Name:  "VPIP",
		Order: 2,
		DetectTags: func(ac *ActionContext) []entity.ActionTag {
			if ac.Phase == entity.Preflop && ac.PhasePlayerActionIndex == 0 &&
				(ac.Type == entity.Call || ac.Type == entity.Raise) {
				return []entity.ActionTag{entity.TagVPIP}
			}
			return nil
		},
		Calculate: func(ctx *CalcContext) (Value, error) {
			return Fraction{Num: len(ctx.taggedHands(entity.TagVPIP)), Den: len(ctx.Hands)}, nil
		},
	}
}

func pfrDefinition() Definition {
	return Definition{
		ID:    StatPFR,
		Name:  "PFR",
		Order: 3,
		DetectTags: func(ac *ActionContext) []entity.ActionTag {
			if ac.Phase == entity.Preflop && ac.Type == entity.Raise {
				return []entity.ActionTag{entity.TagPFR}
			}
			return nil
		},
		Calculate: func(ctx *CalcContext) (Value, error) {
			// Multiple raises in one hand count once.
			return Fraction{Num: len(ctx.taggedHands(entity.TagPFR)), Den: len(ctx.Hands)}, nil
		},
	}
}

func threeBetDefinition() Definition {
	return Definition{
		ID:    StatThreeBet,
		Name:  "3B",
		Order: 4,
		DetectTags: func(ac *ActionContext) []entity.ActionTag {
			// Facing exactly one raise over the blind level.
			if ac.Phase != entity.Preflop || ac.PhasePrevBetCount != 2 {
				return nil
			}
			tags := []entity.ActionTag{entity.TagThreeBetOpp}
			if ac.Type == entity.Raise {
				tags = append(tags, entity.TagThreeBet)
			}
			return tags
		},
		UpdateHandState: func(ac *ActionContext) {
			if ac.Phase == entity.Preflop && ac.PhasePrevBetCount == 2 && ac.Type == entity.Raise {
				ac.HandState.ThreeBetter = ac.PlayerID
			}
		},
		Calculate: func(ctx *CalcContext) (Value, error) {
			return Fraction{
				Num: ctx.countTagged(entity.TagThreeBet),
				Den: ctx.countTagged(entity.TagThreeBetOpp),
			}, nil
		},
	}
}

func threeBetFoldDefinition() Definition {
	return Definition{
		ID:    StatThreeBetFold,
		Name:  "3BF",
		Order: 5,
		DetectTags: func(ac *ActionContext) []entity.ActionTag {
			if ac.Phase != entity.Preflop {
				return nil
			}
			switch {
			case ac.PhasePrevBetCount == 2:
				tags := []entity.ActionTag{entity.TagThreeBetFOpp}
				if ac.Type == entity.Fold {
					tags = append(tags, entity.TagThreeBetFold)
				}
				return tags
			case ac.PhasePrevBetCount == 3 && ac.HandState.ThreeBetter == ac.PlayerID:
				// Facing a raise over one's own 3-bet.
				tags := []entity.ActionTag{entity.TagThreeBetFOpp}
				if ac.Type == entity.Fold {
					tags = append(tags, entity.TagThreeBetFold)
				}
				return tags
			}
			return nil
		},
		Calculate: func(ctx *CalcContext) (Value, error) {
			return Fraction{
				Num: ctx.countTagged(entity.TagThreeBetFold),
				Den: ctx.countTagged(entity.TagThreeBetFOpp),
			}, nil
		},
	}
}

func cbetDefinition() Definition {
	return Definition{
		ID:    StatCBet,
		Name:  "CB",
		Order: 6,
		DetectTags: func(ac *ActionContext) []entity.ActionTag {
			// The last preflop aggressor, first to act postflop with no
			// bet yet this street.
			if ac.Phase == entity.Preflop || ac.Phase == entity.Showdown {
				return nil
			}
			if ac.PhasePrevBetCount != 0 || ac.HandState.CBetter != ac.PlayerID {
				return nil
			}
			tags := []entity.ActionTag{entity.TagCBetOpp}
			if ac.Type == entity.Bet {
				tags = append(tags, entity.TagCBet)
			}
			return tags
		},
		UpdateHandState: func(ac *ActionContext) {
			hs := ac.HandState
			switch {
			case ac.Phase == entity.Preflop:
				if ac.Type.Aggressive() {
					hs.CBetter = ac.PlayerID
				}
			case ac.Phase == entity.Showdown:
			case hs.CBetter == ac.PlayerID && ac.PhasePrevBetCount == 0:
				// The window resolves here whether the bet was made or
				// missed; initiative never carries past it.
				if ac.Type == entity.Bet {
					hs.CBetMade = true
					hs.CBetBy = ac.PlayerID
					hs.CBetPhase = ac.Phase
				}
				hs.CBetter = 0
			case hs.CBetter != 0 && ac.Type.Aggressive():
				// Someone else bet into the would-be c-bettor.
				hs.CBetter = 0
			}
			if ac.Type.Aggressive() {
				hs.LastAggressor = ac.PlayerID
			}
		},
		Calculate: func(ctx *CalcContext) (Value, error) {
			return Fraction{
				Num: ctx.countTagged(entity.TagCBet),
				Den: ctx.countTagged(entity.TagCBetOpp),
			}, nil
		},
	}
}

func cbetFoldDefinition() Definition {
	return Definition{
		ID:    StatCBetFold,
		Name:  "CBF",
		Order: 7,
		DetectTags: func(ac *ActionContext) []entity.ActionTag {
			hs := ac.HandState
			if ac.Phase == entity.Preflop || ac.Phase == entity.Showdown {
				return nil
			}
			// Only the first bet-facing window on the street the c-bet
			// landed counts; a raised c-bet folding later is not
			// attributed here.
			if !hs.CBetMade || hs.CBetPhase != ac.Phase || ac.PhasePrevBetCount != 1 ||
				ac.PlayerID == hs.CBetBy {
				return nil
			}
			tags := []entity.ActionTag{entity.TagCBetFoldOpp}
			if ac.Type == entity.Fold {
				tags = append(tags, entity.TagCBetFold)
			}
			return tags
		},
		Calculate: func(ctx *CalcContext) (Value, error) {
			return Fraction{
				Num: ctx.countTagged(entity.TagCBetFold),
				Den: ctx.countTagged(entity.TagCBetFoldOpp),
			}, nil
		},
	}
}

func aggressionFactorDefinition() Definition {
	return Definition{
		ID:    StatAF,
		Name:  "AF",
		Order: 8,
		Calculate: func(ctx *CalcContext) (Value, error) {
			aggressive, calls := 0, 0
			for i := range ctx.Actions {
				switch {
				case ctx.Actions[i].Type.Aggressive():
					aggressive++
				case ctx.Actions[i].Type == entity.Call:
					calls++
				}
			}
			return Fraction{Num: aggressive, Den: calls}, nil
		},
		Format: func(v Value) string {
			f, ok := v.(Fraction)
			if !ok {
				return "-"
			}
			return FormatRatio(f)
		},
	}
}

func aggressionFrequencyDefinition() Definition {
	return Definition{
		ID:    StatAFq,
		Name:  "AFq",
		Order: 9,
		Calculate: func(ctx *CalcContext) (Value, error) {
			aggressive, total := 0, 0
			for i := range ctx.Actions {
				switch ctx.Actions[i].Type {
				case entity.Bet, entity.Raise:
					aggressive++
					total++
				case entity.Call, entity.Fold:
					total++
				}
				// Checks are excluded from the frequency base.
			}
			return Fraction{Num: aggressive, Den: total}, nil
		},
	}
}

func wtsdDefinition() Definition {
	return Definition{
		ID:    StatWTSD,
		Name:  "WTSD",
		Order: 10,
		Calculate: func(ctx *CalcContext) (Value, error) {
			return Fraction{
				Num: len(ctx.phaseHands(entity.Showdown)),
				Den: len(ctx.phaseHands(entity.Flop)),
			}, nil
		},
	}
}

func wwsfDefinition() Definition {
	return Definition{
		ID:    StatWWSF,
		Name:  "WWSF",
		Order: 11,
		Calculate: func(ctx *CalcContext) (Value, error) {
			return Fraction{
				Num: len(ctx.WinningHandIDs),
				Den: len(ctx.phaseHands(entity.Flop)),
			}, nil
		},
	}
}

func wsdDefinition() Definition {
	return Definition{
		ID:    StatWSD,
		Name:  "W$SD",
		Order: 12,
		Calculate: func(ctx *CalcContext) (Value, error) {
			showdown := ctx.phaseHands(entity.Showdown)
			won := 0
			for id := range showdown {
				if _, ok := ctx.WinningHandIDs[id]; ok {
					won++
				}
			}
			return Fraction{Num: won, Den: len(showdown)}, nil
		},
	}
}

func riverCallDefinition() Definition {
	return Definition{
		ID:    StatRiverCall,
		Name:  "RC",
		Order: 13,
		DetectTags: func(ac *ActionContext) []entity.ActionTag {
			// The winning counterpart tag is backfilled by the converter
			// once the hand's winners are known.
			if ac.Phase == entity.River && ac.Type == entity.Call {
				return []entity.ActionTag{entity.TagRiverCall}
			}
			return nil
		},
		Calculate: func(ctx *CalcContext) (Value, error) {
			return Fraction{
				Num: ctx.countTagged(entity.TagRiverCallWon),
				Den: ctx.countTagged(entity.TagRiverCall),
			}, nil
		},
	}
}
