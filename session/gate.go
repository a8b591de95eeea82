// Package session registers accounts, logs them in and resolves the opaque
// credential presented with every later request.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"todolist/models"
	"todolist/store"
	"todolist/utils"
)

// TokenStore issues and resolves credentials. Resolve reports unknown,
// malformed or expired tokens as models.ErrUnauthorized.
type TokenStore interface {
	Issue(ctx context.Context, s models.Session) (string, error)
	Resolve(ctx context.Context, token string) (models.Session, error)
	Revoke(ctx context.Context, token string) error
}

// Welcomer is told about every new account.
type Welcomer interface {
	SendWelcome(ctx context.Context, a models.Account) error
}

// ClientMeta is recorded on the session at login.
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

type Options struct {
	TTL        time.Duration
	BcryptCost int
	Welcomer   Welcomer
	Logger     *log.Logger
	Now        func() time.Time
}

type Gate struct {
	accounts store.AccountStore
	tokens   TokenStore
	welcome  Welcomer
	log      *log.Logger
	ttl      time.Duration
	cost     int
	now      func() time.Time

	// compared against on unknown emails so both login failures cost the same
	dummyHash []byte
}

func NewGate(accounts store.AccountStore, tokens TokenStore, opts Options) (*Gate, error) {
	g := &Gate{
		accounts: accounts,
		tokens:   tokens,
		welcome:  opts.Welcomer,
		log:      opts.Logger,
		ttl:      opts.TTL,
		cost:     opts.BcryptCost,
		now:      opts.Now,
	}
	if g.ttl <= 0 {
		g.ttl = 24 * time.Hour
	}
	if g.log == nil {
		g.log = log.Default()
	}
	if g.now == nil {
		g.now = func() time.Time { return time.Now().UTC() }
	}

	var err error
	if g.dummyHash, err = utils.HashPassword(uuid.NewString(), g.cost); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Gate) Register(ctx context.Context, username, email, password string) (models.Account, error) {
	username, err := utils.ValidateUsername(username)
	if err != nil {
		return models.Account{}, err
	}
	email, err = utils.ValidateEmail(email)
	if err != nil {
		return models.Account{}, err
	}
	if err := utils.ValidatePassword(password); err != nil {
		return models.Account{}, err
	}

	hash, err := utils.HashPassword(password, g.cost)
	if err != nil {
		return models.Account{}, err
	}

	account, err := g.accounts.CreateAccount(ctx, models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			return models.Account{}, err
		}
		return models.Account{}, fmt.Errorf("create account: %w", err)
	}
	g.log.Info("account registered", "user_id", account.ID)

	if g.welcome != nil {
		if err := g.welcome.SendWelcome(ctx, account); err != nil {
			g.log.Warn("welcome mail not sent", "user_id", account.ID, "err", err)
		}
	}
	return account, nil
}

// Login returns models.ErrInvalidCredentials for an unknown email and for a
// wrong password alike.
func (g *Gate) Login(ctx context.Context, email, password string, meta ClientMeta) (string, error) {
	account, err := g.accounts.AccountByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.CheckPasswordHash(password, g.dummyHash)
			return "", models.ErrInvalidCredentials
		}
		return "", fmt.Errorf("look up account: %w", err)
	}
	if !utils.CheckPasswordHash(password, account.PasswordHash) {
		g.log.Debug("password mismatch", "user_id", account.ID)
		return "", models.ErrInvalidCredentials
	}

	now := g.now()
	token, err := g.tokens.Issue(ctx, models.Session{
		UserID:       account.ID.String(),
		CreatedAt:    now,
		ExpiresAt:    now.Add(g.ttl),
		LastActivity: now,
		UserAgent:    meta.UserAgent,
		IPAddress:    meta.IPAddress,
	})
	if err != nil {
		return "", fmt.Errorf("issue session: %w", err)
	}
	g.log.Info("login", "user_id", account.ID)
	return token, nil
}

// Authenticate resolves token to its account.
func (g *Gate) Authenticate(ctx context.Context, token string) (models.Account, error) {
	if token == "" {
		return models.Account{}, models.ErrUnauthorized
	}
	s, err := g.tokens.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			return models.Account{}, err
		}
		return models.Account{}, fmt.Errorf("resolve session: %w", err)
	}
	if s.Expired(g.now()) {
		return models.Account{}, models.ErrUnauthorized
	}

	id, err := uuid.Parse(s.UserID)
	if err != nil {
		return models.Account{}, models.ErrUnauthorized
	}
	account, err := g.accounts.AccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Account{}, models.ErrUnauthorized
		}
		return models.Account{}, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}

// Logout revokes token where the token store keeps server-side state.
func (g *Gate) Logout(ctx context.Context, token string) error {
	account, err := g.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	if err := g.tokens.Revoke(ctx, token); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	g.log.Info("logout", "user_id", account.ID)
	return nil
}

// RevokerAll is implemented by token stores that can end every session of
// an account at once.
type RevokerAll interface {
	RevokeAll(ctx context.Context, userID string) error
}

// LogoutAll ends every session of the token's account. Stores without
// server-side state only check the token.
func (g *Gate) LogoutAll(ctx context.Context, token string) error {
	account, err := g.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	revoker, ok := g.tokens.(RevokerAll)
	if !ok {
		return nil
	}
	if err := revoker.RevokeAll(ctx, account.ID.String()); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	g.log.Info("logout everywhere", "user_id", account.ID)
	return nil
}
