package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresStore implements Store over a profiles table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open sqlx connection.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get fetches a single profile or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, userID int64) (Profile, error) {
	var p Profile
	err := s.db.GetContext(ctx, &p,
		`SELECT user_id, name, birthdate, life_expectancy, notifications_enabled
		 FROM profiles WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile %d: %w", userID, err)
	}
	return p, nil
}

// Upsert inserts the profile or fully overwrites an existing row.
// Registration is a whole-profile write, never a partial one.
func (s *PostgresStore) Upsert(ctx context.Context, p Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, name, birthdate, life_expectancy, notifications_enabled)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		   name = EXCLUDED.name,
		   birthdate = EXCLUDED.birthdate,
		   life_expectancy = EXCLUDED.life_expectancy,
		   notifications_enabled = EXCLUDED.notifications_enabled`,
		p.UserID, p.Name, p.Birthdate, p.LifeExpectancy, p.NotificationsEnabled)
	if err != nil {
		return fmt.Errorf("upsert profile %d: %w", p.UserID, err)
	}
	return nil
}

// UpdateName changes only the display name.
func (s *PostgresStore) UpdateName(ctx context.Context, userID int64, name string) error {
	return s.updateColumn(ctx, userID, "name", `UPDATE profiles SET name = $1 WHERE user_id = $2`, name)
}

// UpdateBirthdate changes only the birthdate.
func (s *PostgresStore) UpdateBirthdate(ctx context.Context, userID int64, birthdate time.Time) error {
	return s.updateColumn(ctx, userID, "birthdate", `UPDATE profiles SET birthdate = $1 WHERE user_id = $2`, birthdate)
}

// UpdateLifeExpectancy changes only the expectancy in years.
func (s *PostgresStore) UpdateLifeExpectancy(ctx context.Context, userID int64, years int) error {
	return s.updateColumn(ctx, userID, "life_expectancy", `UPDATE profiles SET life_expectancy = $1 WHERE user_id = $2`, years)
}

// UpdateNotifications toggles the weekly push for one user.
func (s *PostgresStore) UpdateNotifications(ctx context.Context, userID int64, enabled bool) error {
	return s.updateColumn(ctx, userID, "notifications_enabled", `UPDATE profiles SET notifications_enabled = $1 WHERE user_id = $2`, enabled)
}

func (s *PostgresStore) updateColumn(ctx context.Context, userID int64, column, query string, value any) error {
	res, err := s.db.ExecContext(ctx, query, value, userID)
	if err != nil {
		return fmt.Errorf("update %s for %d: %w", column, userID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the profile. Deleting an absent profile is not an error.
func (s *PostgresStore) Delete(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete profile %d: %w", userID, err)
	}
	return nil
}

// ListAll returns every stored profile, broadcast order unspecified.
func (s *PostgresStore) ListAll(ctx context.Context) ([]Profile, error) {
	var out []Profile
	err := s.db.SelectContext(ctx, &out,
		`SELECT user_id, name, birthdate, life_expectancy, notifications_enabled
		 FROM profiles ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return out, nil
}
