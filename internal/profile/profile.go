// Package profile defines the persisted user profile and its storage contract.
package profile

import (
	"context"
	"errors"
	"time"
)

// DefaultLifeExpectancy is assigned on registration; users may change it later.
const DefaultLifeExpectancy = 90

// Custom life expectancy bounds accepted from free-form input.
const (
	MinLifeExpectancy = 50
	MaxLifeExpectancy = 120
)

// ErrNotFound is returned when no profile exists for the requested user.
var ErrNotFound = errors.New("profile not found")

// Profile is one user's registration record.
type Profile struct {
	UserID               int64     `db:"user_id"`
	Name                 string    `db:"name"`
	Birthdate            time.Time `db:"birthdate"`
	LifeExpectancy       int       `db:"life_expectancy"`
	NotificationsEnabled bool      `db:"notifications_enabled"`
}

// Store is the persistence contract for profiles. Every call is atomic;
// callers perform no multi-statement transactions on top of it.
type Store interface {
	Get(ctx context.Context, userID int64) (Profile, error)
	Upsert(ctx context.Context, p Profile) error
	UpdateName(ctx context.Context, userID int64, name string) error
	UpdateBirthdate(ctx context.Context, userID int64, birthdate time.Time) error
	UpdateLifeExpectancy(ctx context.Context, userID int64, years int) error
	UpdateNotifications(ctx context.Context, userID int64, enabled bool) error
	Delete(ctx context.Context, userID int64) error
	ListAll(ctx context.Context) ([]Profile, error)
}
