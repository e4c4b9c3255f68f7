package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/localnerve/authorizer-go"
	"go.uber.org/zap"

	"github.com/localnerve/recordsdb/internal/auth"
	"github.com/localnerve/recordsdb/internal/config"
	"github.com/localnerve/recordsdb/internal/utils"
)

// SessionValidator resolves a session cookie into the user it belongs to,
// requiring at least one of roles.
type SessionValidator interface {
	ValidateSession(ctx context.Context, cookie string, roles []string) (auth.User, error)
}

// AuthorizerValidator validates sessions against an Authorizer instance. The
// client is created on first use so the service can start before the
// authorizer is reachable. A failed attempt is retried on the next request.
type AuthorizerValidator struct {
	cfg         *config.Config
	redirectURL string
	logger      *zap.Logger

	mu     sync.Mutex
	client *authorizer.AuthorizerClient
}

// NewAuthorizerValidator returns a validator for cfg.AuthzURL.
func NewAuthorizerValidator(cfg *config.Config, redirectURL string, logger *zap.Logger) *AuthorizerValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthorizerValidator{cfg: cfg, redirectURL: redirectURL, logger: logger}
}

func (v *AuthorizerValidator) init() (*authorizer.AuthorizerClient, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.client != nil {
		return v.client, nil
	}

	// Ping the Authorizer service first
	if err := utils.PingAuthorizer(v.cfg.AuthzURL); err != nil {
		v.logger.Warn("authorizer unreachable", zap.String("authorizer_url", v.cfg.AuthzURL), zap.Error(err))
		return nil, fmt.Errorf("authorizer ping failed: %w", err)
	}

	v.logger.Info("initializing authorizer",
		zap.String("authorizer_url", v.cfg.AuthzURL),
		zap.String("client_id", v.cfg.AuthzClientID),
		zap.String("redirect_url", v.redirectURL))

	client, err := authorizer.NewAuthorizerClient(v.cfg.AuthzClientID, v.cfg.AuthzURL, v.redirectURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorizer client: %w", err)
	}
	v.client = client
	return client, nil
}

// Initialized reports whether the authorizer client is ready, creating it
// if the authorizer has become reachable.
func (v *AuthorizerValidator) Initialized() bool {
	_, err := v.init()
	return err == nil
}

// ValidateSession validates a session cookie for the given roles.
func (v *AuthorizerValidator) ValidateSession(ctx context.Context, cookie string, roles []string) (auth.User, error) {
	client, err := v.init()
	if err != nil {
		return auth.User{}, err
	}

	// Convert roles to []*string
	rolesPtrs := make([]*string, len(roles))
	for i := range roles {
		rolesPtrs[i] = &roles[i]
	}

	res, err := client.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
		Roles:  rolesPtrs,
	})
	if err != nil {
		return auth.User{}, fmt.Errorf("session validation failed: %w", err)
	}
	if res == nil || !res.IsValid || res.User == nil {
		return auth.User{}, fmt.Errorf("session is not valid")
	}

	user := auth.User{ID: res.User.ID, Email: res.User.Email}
	for _, r := range res.User.Roles {
		if r != nil {
			user.Roles = append(user.Roles, *r)
		}
	}
	return user, nil
}

// StaticValidator accepts any non-empty cookie as User. It backs
// AUTH_DISABLED development mode and handler tests.
type StaticValidator struct {
	User auth.User
}

func (s StaticValidator) ValidateSession(_ context.Context, cookie string, roles []string) (auth.User, error) {
	if cookie == "" {
		return auth.User{}, fmt.Errorf("session is not valid")
	}
	for _, role := range roles {
		if !s.User.HasRole(role) {
			return auth.User{}, fmt.Errorf("role %q not granted", role)
		}
	}
	return s.User, nil
}
