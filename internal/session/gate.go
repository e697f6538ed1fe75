package session

import (
	"context"
	"errors"
	"fmt"

	"docent/internal/events"
	"docent/internal/types"

	"go.uber.org/zap"
)

// Status is the result of the launch-time session check.
type Status int

const (
	// StatusShowLoginPrompt means no usable credential is stored.
	StatusShowLoginPrompt Status = iota
	// StatusResumed means a stored credential was found and the visitor goes
	// straight to home.
	StatusResumed
	// StatusInvalid is reserved for a server-side token check. CheckAutoLogin
	// never produces it today.
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusShowLoginPrompt:
		return "show_login_prompt"
	case StatusResumed:
		return "resumed"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Outcome is what CheckAutoLogin decided.
type Outcome struct {
	Status Status
	User   types.UserInfo
}

// Resetter returns navigation to the launch screen, dropping every screen
// above it.
type Resetter interface {
	ResetToLaunch()
}

// Gate owns the credential for the lifetime of the process.
type Gate struct {
	store  CredentialStore
	bus    events.Publisher
	logger *zap.Logger
}

// NewGate creates a gate over store. bus receives ForceLogout on Logout.
func NewGate(store CredentialStore, bus events.Publisher, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{store: store, bus: bus, logger: logger}
}

// CheckAutoLogin reads the stored credential. Any non-blank token resumes the
// session.
//
// The token is not validated against the server before resuming. A revoked
// token is only discovered when a later request fails and something publishes
// ForceLogout.
func (g *Gate) CheckAutoLogin(ctx context.Context) (Outcome, error) {
	cred, err := g.store.Get(ctx)
	if errors.Is(err, ErrNoCredential) {
		g.logger.Debug("no stored credential")
		return Outcome{Status: StatusShowLoginPrompt}, nil
	}
	if err != nil {
		return Outcome{Status: StatusShowLoginPrompt}, fmt.Errorf("read credential: %w", err)
	}
	if cred.Empty() {
		g.logger.Debug("stored credential is blank")
		return Outcome{Status: StatusShowLoginPrompt}, nil
	}

	g.logger.Info("session resumed", zap.Int64("user_id", cred.User.ID))
	return Outcome{Status: StatusResumed, User: cred.User}, nil
}

// Login persists the credential obtained from the login provider.
func (g *Gate) Login(ctx context.Context, token string, user types.UserInfo) error {
	cred := Credential{Token: token, User: user}
	if cred.Empty() {
		return fmt.Errorf("login: %w", ErrNoCredential)
	}
	if err := g.store.Set(ctx, cred); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	g.logger.Info("logged in", zap.Int64("user_id", user.ID))
	return nil
}

// Logout clears the credential and announces ForceLogout so every feature
// drops its user state.
func (g *Gate) Logout(ctx context.Context) error {
	if err := g.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	if g.bus != nil {
		g.bus.Publish(events.ForceLogout{})
	}
	return nil
}

// Bind subscribes the gate to ForceLogout: the credential is cleared and
// navigation is reset to launch. The caller owns the returned subscription.
func (g *Gate) Bind(sub events.Subscriber, nav Resetter) *events.Subscription {
	return events.On(sub, func(events.ForceLogout) error {
		g.logger.Info("forced logout")
		// Reset even if clearing fails. A credential that survives the
		// failed clear resumes the session at next launch.
		err := g.store.Clear(context.Background())
		if nav != nil {
			nav.ResetToLaunch()
		}
		if err != nil {
			return fmt.Errorf("clear credential on forced logout: %w", err)
		}
		return nil
	})
}
