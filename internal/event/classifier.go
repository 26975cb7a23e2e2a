package event

// Category groups protocol kinds by how the pipeline handles them.
type Category int

const (
	CategoryUnknown Category = iota
	CategorySession          // ambient context updates
	CategoryDeal             // hand start
	CategoryRound            // street transition
	CategoryAction           // player decision
	CategoryResult           // terminal hand result
)

// Classify reports whether the event belongs to the domain protocol and, if
// so, which category it falls into. Unrecognized kinds and envelopes with a
// missing payload are noise: they must never reach the aggregator or the
// store. Pure function, never fails.
func Classify(ev *Event) (Category, bool) {
	if ev == nil {
		return CategoryUnknown, false
	}
	switch ev.Kind {
	case KindEntryQueued:
		return CategorySession, ev.EntryQueued != nil
	case KindSessionDetails:
		return CategorySession, ev.SessionDetails != nil
	case KindSeatsAssigned:
		return CategorySession, ev.SeatsAssigned != nil
	case KindPlayerJoin:
		return CategorySession, ev.PlayerJoin != nil
	case KindDeal:
		return CategoryDeal, ev.Deal != nil
	case KindRound:
		return CategoryRound, ev.Round != nil
	case KindAction:
		return CategoryAction, ev.Action != nil
	case KindResult:
		return CategoryResult, ev.Result != nil
	default:
		return CategoryUnknown, false
	}
}
