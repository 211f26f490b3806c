package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/designsafe-ci/portal-data/internal/box"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/designsafe-ci/portal-data/internal/models"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BoxStatus is what the Box index page shows.
type BoxStatus struct {
	Enabled bool   `json:"enabled"`
	Name    string `json:"name,omitempty"`
	Login   string `json:"login,omitempty"`
	Error   string `json:"error,omitempty"`
}

type BoxService struct {
	db  *gorm.DB
	api box.API
	log *logger.Logger
}

func NewBoxService(db *gorm.DB, api box.API, log *logger.Logger) *BoxService {
	return &BoxService{db: db, api: api, log: log.With("service", "BoxService")}
}

// AuthCodeURL is where the user is sent to grant access.
func (s *BoxService) AuthCodeURL(state string) string {
	return s.api.AuthCodeURL(state)
}

// Connect completes the authorization code flow for user: it stores the
// tokens and the current event stream position.
func (s *BoxService) Connect(ctx context.Context, user, code string) (*box.User, error) {
	tok, err := s.api.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	ts := oauth2.StaticTokenSource(tok)
	boxUser, err := s.api.CurrentUser(ctx, ts)
	if err != nil {
		return nil, err
	}
	pos, err := s.api.LatestStreamPosition(ctx, ts)
	if err != nil {
		return nil, err
	}

	row := &models.BoxUserToken{User: user, BoxUserID: boxUser.ID}
	row.SetToken(tok)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoUpdates: clause.AssignmentColumns([]string{"box_user_id", "access_token", "refresh_token", "expiry", "updated_at"}),
		}).Create(row).Error
		if err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoUpdates: clause.AssignmentColumns([]string{"stream_position", "updated_at"}),
		}).Create(&models.BoxUserStreamPosition{User: user, StreamPosition: pos}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("store box connection: %w", err)
	}
	s.log.Info("box connected", "user", user, "box_user", boxUser.ID)
	return boxUser, nil
}

// Token returns the stored token row for user, or gorm.ErrRecordNotFound.
func (s *BoxService) Token(ctx context.Context, user string) (*models.BoxUserToken, error) {
	var row models.BoxUserToken
	if err := s.db.WithContext(ctx).Where("username = ?", user).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// StreamPosition returns the stored event stream position for user.
func (s *BoxService) StreamPosition(ctx context.Context, user string) (string, error) {
	var row models.BoxUserStreamPosition
	if err := s.db.WithContext(ctx).Where("username = ?", user).First(&row).Error; err != nil {
		return "", err
	}
	return row.StreamPosition, nil
}

// tokenSource authenticates as the stored row, saving any refreshed token.
func (s *BoxService) tokenSource(ctx context.Context, row *models.BoxUserToken) oauth2.TokenSource {
	return storedTokens(s.db.WithContext(ctx), row, s.api.TokenSource(ctx, row.Token()), "box", row.User, s.log)
}

// Status reports whether user has connected Box, and as whom. A stored token
// that Box rejects still counts as enabled; the error is reported alongside.
func (s *BoxService) Status(ctx context.Context, user string) (*BoxStatus, error) {
	row, err := s.Token(ctx, user)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &BoxStatus{}, nil
	}
	if err != nil {
		return nil, err
	}

	status := &BoxStatus{Enabled: true}
	boxUser, err := s.api.CurrentUser(ctx, s.tokenSource(ctx, row))
	if err != nil {
		s.log.Warn("box user lookup failed", "user", user, "error", err)
		status.Error = err.Error()
		return status, nil
	}
	status.Name = boxUser.Name
	status.Login = boxUser.Login
	return status, nil
}

// Disconnect removes the user's token and stream position.
func (s *BoxService) Disconnect(ctx context.Context, user string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", user).Delete(&models.BoxUserToken{}).Error; err != nil {
			return err
		}
		return tx.Where("username = ?", user).Delete(&models.BoxUserStreamPosition{}).Error
	})
}
