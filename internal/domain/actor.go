package domain

import "strings"

// Role is a portal role granted by the identity provider.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleCommercial Role = "comercial"
	RoleFinance    Role = "financeiro"
	RoleBoard      Role = "diretoria"
)

// ActorContext is the authenticated identity performing an operation. It is
// passed explicitly into every core operation.
type ActorContext struct {
	Email string
	Roles []Role
}

// NewActor builds an actor context, normalizing the email.
func NewActor(email string, roles ...Role) ActorContext {
	return ActorContext{Email: strings.ToLower(strings.TrimSpace(email)), Roles: roles}
}

// HasRole reports whether the actor holds role.
func (a ActorContext) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a ActorContext) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}

// CanAccess reports whether the actor may read and act on the ticket.
func (a ActorContext) CanAccess(t *Ticket) bool {
	if t == nil {
		return false
	}
	return a.IsAdmin() || strings.EqualFold(t.CreatorEmail, a.Email)
}
