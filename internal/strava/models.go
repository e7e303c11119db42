package strava

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"reroute/internal/auth"
)

// Credential is a user's stored Strava token pair.
type Credential struct {
	UserID       int64
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresAt    time.Time
}

// Token converts the stored credential to an oauth2 token.
func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.ExpiresAt,
	}
}

// CredentialFromAuth builds a credential from a completed OAuth flow.
func CredentialFromAuth(userID int64, result *auth.AuthResult) *Credential {
	return &Credential{
		UserID:       userID,
		AthleteID:    result.AthleteID,
		AccessToken:  result.Token.AccessToken,
		RefreshToken: result.Token.RefreshToken,
		TokenType:    result.Token.TokenType,
		Scope:        result.Scope,
		ExpiresAt:    result.Token.Expiry,
	}
}

// CredentialStore persists Strava credentials per user. Lookups for a user
// with no linked account return domain.ErrNotLinked.
type CredentialStore interface {
	CredentialForUser(ctx context.Context, userID int64) (*Credential, error)
	SaveCredential(ctx context.Context, cred *Credential) error
}
