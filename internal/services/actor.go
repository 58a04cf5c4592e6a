// internal/services/actor.go
package services

import (
	"github.com/google/uuid"

	"github.com/javajoker/b2b-marketplace/internal/models"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   uuid.UUID
	Role models.Role
}

func NewActor(user *models.User) Actor {
	return Actor{ID: user.ID, Role: user.Role}
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Owns reports whether the actor owns a resource or is an admin.
func (a Actor) Owns(ownerID uuid.UUID) bool {
	return a.IsAdmin() || a.ID == ownerID
}
