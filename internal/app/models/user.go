package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID        int64     `json:"id" db:"id" example:"1"`                                   // Unique identifier for the user
	Name      string    `json:"name" db:"name" example:"Dr. A. Verma"`                    // Display name
	Email     string    `json:"email" db:"email" example:"verma@college.edu"`             // User's email address (unique)
	Password  string    `json:"-" db:"password_hash"`                                     // User's hashed password (excluded from JSON)
	RoleType  RoleType  `json:"role" db:"role" example:"faculty"`                         // User's role (custodian or faculty)
	CreatedAt time.Time `json:"createdAt" db:"created_at" example:"2025-01-01T10:00:00Z"` // Timestamp when the user was created
}
