package entity

const (
	RoleNone   Role = 0
	RoleFirst  Role = 1
	RoleSecond Role = 2
)

// Identity is the opaque per-connection handle issued by the transport.
type Identity string

// Role is a seat in the match.
type Role int

// Mark returns the mark a role places on the board.
func (that Role) Mark() Mark {
	switch that {
	case RoleFirst:
		return MarkX
	case RoleSecond:
		return MarkO
	default:
		return EmptyCell
	}
}

// Opponent returns the other seat.
func (that Role) Opponent() Role {
	if that == RoleFirst {
		return RoleSecond
	}
	return RoleFirst
}

func (that Role) String() string {
	switch that {
	case RoleFirst:
		return "first"
	case RoleSecond:
		return "second"
	default:
		return "none"
	}
}

// RoleOfVerdict maps a winning verdict back to its role.
func RoleOfVerdict(verdict Verdict) Role {
	switch verdict {
	case VerdictX:
		return RoleFirst
	case VerdictO:
		return RoleSecond
	default:
		return RoleNone
	}
}

// MarkPtr returns the role's mark as a wire value, nil for RoleNone.
func MarkPtr(role Role) *string {
	if role == RoleNone {
		return nil
	}

	mark := string(role.Mark())
	return &mark
}
