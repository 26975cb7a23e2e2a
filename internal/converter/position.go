package converter

import "github.com/lox/pokerhud/internal/entity"

// position labels the acting seat relative to the button. Preflop uses the
// blind-relative rotation (first to act is big blind + 1); postflop uses the
// button-relative rotation (first to act is button + 1). Both rotations map
// to the same label per player.
func (c *Converter) position(b *handBuild, actorSeat int) entity.Position {
	seats := occupiedSeats(b.seatPlayers)
	n := len(seats)
	if n == 0 {
		return entity.PositionBTN
	}

	if b.phase == entity.Preflop {
		rot := rotationIndex(seats, b.bbSeat, actorSeat)
		// Rotation order: UTG.., HJ, CO, BTN, SB, BB.
		switch rot {
		case n - 1:
			return entity.PositionBB
		case n - 2:
			return entity.PositionSB
		case n - 3:
			return entity.PositionBTN
		case n - 4:
			return entity.PositionCO
		case n - 5:
			return entity.PositionHJ
		default:
			return entity.PositionUTG
		}
	}

	rot := rotationIndex(seats, b.buttonSeat, actorSeat)
	// Rotation order: SB, BB, UTG.., HJ, CO, BTN.
	switch rot {
	case 0:
		return entity.PositionSB
	case 1:
		return entity.PositionBB
	case n - 1:
		return entity.PositionBTN
	case n - 2:
		return entity.PositionCO
	case n - 3:
		return entity.PositionHJ
	default:
		return entity.PositionUTG
	}
}

// occupiedSeats returns the seat indexes holding a player, ascending.
func occupiedSeats(seatPlayers []int64) []int {
	seats := make([]int, 0, len(seatPlayers))
	for seat, id := range seatPlayers {
		if id != entity.EmptySeat {
			seats = append(seats, seat)
		}
	}
	return seats
}

// rotationIndex returns the actor's index in the occupied-seat list rotated
// so index 0 is the first occupied seat after anchorSeat.
func rotationIndex(seats []int, anchorSeat, actorSeat int) int {
	anchor := -1
	actor := -1
	for i, seat := range seats {
		if seat == anchorSeat {
			anchor = i
		}
		if seat == actorSeat {
			actor = i
		}
	}
	if actor < 0 {
		return 0
	}
	if anchor < 0 {
		return actor
	}
	n := len(seats)
	return (actor - anchor - 1 + 2*n) % n
}
