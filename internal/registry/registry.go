package registry

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-coordinator/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/entity"
)

// Registry maps the two seats to the identities holding them.
// It is not safe for concurrent use; the session controller serializes access.
type Registry struct {
	seats [2]entity.Identity
}

func New() *Registry {
	return &Registry{}
}

// Admit - seats the identity in the first free role.
func (that *Registry) Admit(id entity.Identity) (entity.Role, error) {
	if role, ok := that.RoleOf(id); ok {
		return role, nil
	}

	for i, seat := range that.seats {
		if seat == "" {
			that.seats[i] = id
			return roleAt(i), nil
		}
	}

	return entity.RoleNone, fmt.Errorf("%w: identity %s", apperror.ErrRoomFull, id)
}

// Release - frees the identity's seat. A remaining second player becomes first.
func (that *Registry) Release(id entity.Identity) {
	switch id {
	case "":
		return
	case that.seats[0]:
		that.seats[0], that.seats[1] = that.seats[1], ""
	case that.seats[1]:
		that.seats[1] = ""
	}
}

func (that *Registry) RoleOf(id entity.Identity) (entity.Role, bool) {
	if id == "" {
		return entity.RoleNone, false
	}

	for i, seat := range that.seats {
		if seat == id {
			return roleAt(i), true
		}
	}

	return entity.RoleNone, false
}

func (that *Registry) IsComplete() bool {
	return that.seats[0] != "" && that.seats[1] != ""
}

// Players returns the seated identities in role order.
func (that *Registry) Players() []entity.Identity {
	players := make([]entity.Identity, 0, len(that.seats))
	for _, seat := range that.seats {
		if seat != "" {
			players = append(players, seat)
		}
	}

	return players
}

func roleAt(i int) entity.Role {
	if i == 0 {
		return entity.RoleFirst
	}
	return entity.RoleSecond
}
