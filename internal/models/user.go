package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an activated account. Pending registrations never reach this table;
// they live inside the activation token until the code is confirmed.
type User struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string  `gorm:"not null" json:"name"`
	Email       string  `gorm:"uniqueIndex;not null" json:"email"`
	PhoneNumber *string `gorm:"uniqueIndex" json:"phone_number"`
	Password    string  `gorm:"not null" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Phone returns the phone number or the empty string when none is set.
func (u *User) Phone() string {
	if u.PhoneNumber == nil {
		return ""
	}
	return *u.PhoneNumber
}

// NullableString maps the empty string to NULL so optional unique columns
// do not collide on "".
func NullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
