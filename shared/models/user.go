package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the account view this service needs: identity and the point total.
// Credentials are owned by the auth service; PasswordHash is only written by the seeder.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"firstName"`
	LastName     string    `db:"last_name" json:"lastName"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	TotalPoints  int       `db:"total_points" json:"totalPoints"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
