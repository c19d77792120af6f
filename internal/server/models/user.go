package models

import "time"

type User struct {
	ID           string
	UserName     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	Location     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate lists the profile fields to change. Nil pointers are left
// untouched.
type ProfileUpdate struct {
	UserName  *string
	Email     *string
	FirstName *string
	LastName  *string
	Phone     *string
	Location  *string
}

// IsEmpty reports whether the update changes nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return p.UserName == nil && p.Email == nil && p.FirstName == nil &&
		p.LastName == nil && p.Phone == nil && p.Location == nil
}
