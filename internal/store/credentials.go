package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reroute/internal/domain"
	"reroute/internal/strava"
)

// CredentialForUser returns the stored Strava credential for a user, or
// domain.ErrNotLinked if the account has never been connected.
func (s *Store) CredentialForUser(ctx context.Context, userID int64) (*strava.Credential, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, athlete_id, access_token, refresh_token, token_type, scope, expires_at
		FROM strava_credentials
		WHERE user_id = ?
	`, userID)

	var cred strava.Credential
	var tokenType, scope sql.NullString
	var expiresAt string
	err := row.Scan(&cred.UserID, &cred.AthleteID, &cred.AccessToken, &cred.RefreshToken,
		&tokenType, &scope, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, domain.ErrNotLinked)
	}
	if err != nil {
		return nil, err
	}

	cred.TokenType = stringOf(tokenType)
	cred.Scope = stringOf(scope)
	if t, err := time.Parse(time.RFC3339, expiresAt); err == nil {
		cred.ExpiresAt = t
	}
	return &cred, nil
}

// SaveCredential upserts a user's Strava credential. Called after the OAuth
// flow and after every token refresh.
func (s *Store) SaveCredential(ctx context.Context, cred *strava.Credential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO strava_credentials (
			user_id, athlete_id, access_token, refresh_token, token_type, scope, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			scope = excluded.scope,
			expires_at = excluded.expires_at,
			updated_at = CURRENT_TIMESTAMP
	`, cred.UserID, cred.AthleteID, cred.AccessToken, cred.RefreshToken,
		nullString(cred.TokenType), nullString(cred.Scope),
		cred.ExpiresAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

// UserIDForAthlete maps a Strava athlete id back to the owning user. Used
// when routing provider activity events.
func (s *Store) UserIDForAthlete(ctx context.Context, athleteID int64) (int64, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id FROM strava_credentials WHERE athlete_id = ?
	`, athleteID)

	var userID int64
	err := row.Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("athlete %d: %w", athleteID, domain.ErrNotLinked)
	}
	if err != nil {
		return 0, err
	}
	return userID, nil
}
