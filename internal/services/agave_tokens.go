package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/designsafe-ci/portal-data/internal/agave"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/designsafe-ci/portal-data/internal/models"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// ErrNoAgaveToken is returned for users who never completed the tenant login.
var ErrNoAgaveToken = errors.New("user has no agave token")

// AgaveClients builds per-user tenant clients from stored tokens.
type AgaveClients struct {
	db      *gorm.DB
	conf    *oauth2.Config
	baseURL string
	log     *logger.Logger
}

func NewAgaveClients(db *gorm.DB, baseURL, clientKey, clientSecret string, log *logger.Logger) *AgaveClients {
	return &AgaveClients{
		db:      db,
		conf:    agave.OAuthConfig(baseURL, clientKey, clientSecret),
		baseURL: baseURL,
		log:     log,
	}
}

// ForUser returns a client acting as username.
func (f *AgaveClients) ForUser(ctx context.Context, username string) (*agave.Client, error) {
	var row models.AgaveOAuthToken
	err := f.db.WithContext(ctx).Where("username = ?", username).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", username, ErrNoAgaveToken)
	}
	if err != nil {
		return nil, err
	}

	ts := storedTokens(f.db.WithContext(ctx), &row, f.conf.TokenSource(ctx, row.Token()), "agave", username, f.log)
	return agave.NewClient(ctx, f.baseURL, ts, f.log), nil
}
