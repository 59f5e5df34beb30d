package types

import "github.com/google/uuid"

// Identity is the server-resolved caller of a request. Unauthenticated
// requests carry the guest identity rather than a fallback account.
type Identity struct {
	ID          uuid.UUID
	Username    string
	DisplayName string
	Role        Role
	Guest       bool
}

func GuestIdentity() Identity {
	return Identity{Username: "guest", Role: RoleUser, Guest: true}
}

// JudgeName is the name recorded on judgments: the caller's display name,
// falling back to the account username. Never taken from a request payload.
func (i Identity) JudgeName() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}

	return i.Username
}
