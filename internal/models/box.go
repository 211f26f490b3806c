package models

import (
	"time"

	"golang.org/x/oauth2"
)

// BoxUserToken holds a portal user's Box.com OAuth2 tokens.
type BoxUserToken struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	User         string `gorm:"column:username;size:255;not null;uniqueIndex"`
	BoxUserID    string `gorm:"size:64"`
	AccessToken  string `gorm:"size:255;not null"`
	RefreshToken string `gorm:"size:255;not null"`
	Expiry       time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (BoxUserToken) TableName() string {
	return "box_integration_boxusertoken"
}

// Token converts the row for an oauth2 client.
func (t *BoxUserToken) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       t.Expiry,
	}
}

// SetToken copies refreshed credentials onto the row.
func (t *BoxUserToken) SetToken(tok *oauth2.Token) {
	t.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		t.RefreshToken = tok.RefreshToken
	}
	t.Expiry = tok.Expiry
}

// BoxUserStreamPosition is the last Box event stream position synced for a user.
type BoxUserStreamPosition struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	User           string `gorm:"column:username;size:255;not null;uniqueIndex"`
	StreamPosition string `gorm:"size:48;not null"`
	UpdatedAt      time.Time
}

func (BoxUserStreamPosition) TableName() string {
	return "box_integration_boxuserstreamposition"
}
