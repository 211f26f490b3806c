package services

import (
	"fmt"
	"sync"

	"github.com/designsafe-ci/portal-data/internal/logger"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// tokenRow is a stored OAuth2 credential.
type tokenRow interface {
	Token() *oauth2.Token
	SetToken(tok *oauth2.Token)
}

// storedTokenSource refreshes through base and writes every new token back
// to the row. Providers with single-use refresh tokens depend on it.
type storedTokenSource struct {
	mu       sync.Mutex
	db       *gorm.DB
	row      tokenRow
	base     oauth2.TokenSource
	provider string
	user     string
	log      *logger.Logger
}

func (s *storedTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == s.row.Token().AccessToken {
		return tok, nil
	}
	s.row.SetToken(tok)
	if err := s.db.Save(s.row).Error; err != nil {
		return nil, fmt.Errorf("save refreshed %s token: %w", s.provider, err)
	}
	s.log.Info("token refreshed", "provider", s.provider, "user", s.user)
	return tok, nil
}

// storedTokens wraps base so refreshed tokens are saved to row, reusing the
// stored token while it is valid.
func storedTokens(db *gorm.DB, row tokenRow, base oauth2.TokenSource, provider, user string, log *logger.Logger) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(row.Token(), &storedTokenSource{
		db:       db,
		row:      row,
		base:     base,
		provider: provider,
		user:     user,
		log:      log,
	})
}
