package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the persisted account behind an authenticated connection.
// Profile fields are read once per connection lifetime; the matchmaker never re-fetches them.
type User struct {
	ID              string `gorm:"primaryKey" json:"id"`
	Email           string `gorm:"uniqueIndex" json:"email"`
	PasswordHash    string `json:"-"`
	FullName        string `json:"fullName"`
	Username        string `gorm:"index" json:"username"`
	Gender          string `json:"gender"`
	Country         string `json:"country"`
	Age             int    `json:"age"`
	Tokens          int    `json:"tokens"`
	ProfileComplete bool   `json:"profileComplete"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate generates a UUID for the user if the ID is not already set.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// Profile returns the matching snapshot of the user.
func (u *User) Profile() Profile {
	return Profile{
		UserID:   u.ID,
		FullName: u.FullName,
		Username: u.Username,
		Gender:   u.Gender,
		Country:  u.Country,
		Age:      u.Age,
		Tokens:   u.Tokens,
	}
}
