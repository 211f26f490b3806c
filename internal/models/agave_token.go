package models

import (
	"time"

	"golang.org/x/oauth2"
)

// AgaveOAuthToken holds a portal user's tenant OAuth2 tokens.
type AgaveOAuthToken struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	User         string `gorm:"column:username;size:255;not null;uniqueIndex"`
	TokenType    string `gorm:"size:32"`
	Scope        string `gorm:"size:255"`
	AccessToken  string `gorm:"size:255;not null"`
	RefreshToken string `gorm:"size:255"`
	ExpiresIn    int64
	Created      time.Time
	UpdatedAt    time.Time
}

func (AgaveOAuthToken) TableName() string {
	return "designsafe_auth_agaveoauthtoken"
}

// Expiry is when the access token stops being valid.
func (t *AgaveOAuthToken) Expiry() time.Time {
	return t.Created.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// Expired reports whether the access token is past its expiry.
func (t *AgaveOAuthToken) Expired() bool {
	return time.Now().After(t.Expiry())
}

func (t *AgaveOAuthToken) Token() *oauth2.Token {
	tokenType := t.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    tokenType,
		Expiry:       t.Expiry(),
	}
}

// SetToken stores refreshed credentials, resetting the expiry clock.
func (t *AgaveOAuthToken) SetToken(tok *oauth2.Token) {
	t.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		t.RefreshToken = tok.RefreshToken
	}
	if tok.TokenType != "" {
		t.TokenType = tok.TokenType
	}
	t.Created = time.Now().UTC()
	if !tok.Expiry.IsZero() {
		t.ExpiresIn = int64(tok.Expiry.Sub(t.Created) / time.Second)
	}
}
