package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID             string         `db:"id"`
	FirstName      string         `db:"first_name"`
	LastName       string         `db:"last_name"`
	PhoneNumber    string         `db:"phone_number"`
	Email          string         `db:"email"`
	Role           string         `db:"role"`
	Status         string         `db:"status"`
	Image          sql.NullString `db:"image"`
	HashedPassword string         `db:"hashed_password"`
	CreatedAt      time.Time      `db:"created_at"`
	DeletedAt      sql.NullTime   `db:"deleted_at"`
}

const (
	UserRoleShipper = "shipper"
	UserRoleDriver  = "driver"
	UserRoleAdmin   = "admin"
)

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
