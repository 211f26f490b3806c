package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/designsafe-ci/portal-data/internal/config"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/designsafe-ci/portal-data/internal/utils"
	authorizer "github.com/localnerve/authorizer-go"
)

// SessionUser is the portal user behind a validated session.
type SessionUser struct {
	ID                string   `json:"id"`
	Email             string   `json:"email"`
	PreferredUsername string   `json:"preferred_username"`
	Nickname          string   `json:"nickname"`
	Roles             []string `json:"roles"`
}

// Username is the portal username: the preferred username, then the
// nickname, then the local part of the email address.
func (u *SessionUser) Username() string {
	switch {
	case u.PreferredUsername != "":
		return u.PreferredUsername
	case u.Nickname != "":
		return u.Nickname
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// SessionValidator checks a session cookie for a set of roles.
type SessionValidator interface {
	ValidateSession(cookie string, roles []string) (*SessionUser, error)
}

// AuthService validates sessions against the Authorizer service. The client is
// created on first use, once the public host of the service is known.
type AuthService struct {
	cfg    *config.Config
	log    *logger.Logger
	once   sync.Once
	client *authorizer.AuthorizerClient
	err    error
}

func NewAuthService(cfg *config.Config, log *logger.Logger) *AuthService {
	return &AuthService{cfg: cfg, log: log.With("service", "AuthService")}
}

// Init creates the Authorizer client. Later calls return the first result.
func (s *AuthService) Init(requestProtocol, requestHost string) error {
	s.once.Do(func() {
		if err := utils.PingAuthorizer(s.cfg.AuthzURL); err != nil {
			s.err = fmt.Errorf("authorizer ping failed: %w", err)
			return
		}

		redirectURL := fmt.Sprintf("%s://%s", requestProtocol, requestHost)
		s.log.Info("initializing authorizer", "url", s.cfg.AuthzURL, "client_id", s.cfg.AuthzClientID, "redirect", redirectURL)

		s.client, s.err = authorizer.NewAuthorizerClient(s.cfg.AuthzClientID, s.cfg.AuthzURL, redirectURL, nil)
		if s.err != nil {
			s.err = fmt.Errorf("failed to create authorizer client: %w", s.err)
		}
	})
	return s.err
}

// Initialized reports whether a client exists.
func (s *AuthService) Initialized() bool {
	return s.client != nil
}

func (s *AuthService) ValidateSession(cookie string, roles []string) (*SessionUser, error) {
	if s.client == nil {
		return nil, fmt.Errorf("authorizer client not initialized")
	}

	rolesPtrs := make([]*string, len(roles))
	for i := range roles {
		rolesPtrs[i] = &roles[i]
	}

	res, err := s.client.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
		Roles:  rolesPtrs,
	})
	if err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if res == nil || !res.IsValid {
		return nil, fmt.Errorf("session is not valid")
	}

	// The SDK user mirrors the GraphQL schema; keep only what the portal needs.
	raw, err := json.Marshal(res.User)
	if err != nil {
		return nil, fmt.Errorf("encode session user: %w", err)
	}
	user := &SessionUser{}
	if err := json.Unmarshal(raw, user); err != nil {
		return nil, fmt.Errorf("decode session user: %w", err)
	}
	if user.Username() == "" {
		return nil, fmt.Errorf("session user has no username")
	}
	return user, nil
}
