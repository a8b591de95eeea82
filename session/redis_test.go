package session_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"todolist/models"
	"todolist/session"
	"todolist/store"
)

func newRedisTokens(t *testing.T) (*session.RedisTokens, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return session.NewRedisTokens(client), mr
}

func TestRedisTokens(t *testing.T) {
	tokens, mr := newRedisTokens(t)
	ctx := context.Background()
	now := time.Now().UTC()

	token, err := tokens.Issue(ctx, models.Session{
		UserID:       "user-1",
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Hour),
		LastActivity: now,
		UserAgent:    "curl/8",
		IPAddress:    "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if ttl := mr.TTL("session:" + token); ttl <= 0 || ttl > time.Hour {
		t.Errorf("session TTL = %v, want within (0, 1h]", ttl)
	}
	members, err := mr.Members("user_sessions:user-1")
	if err != nil || len(members) != 1 || members[0] != "session:"+token {
		t.Errorf("user index = %v (%v), want [session:%s]", members, err, token)
	}

	s, err := tokens.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.UserID != "user-1" || s.UserAgent != "curl/8" || s.IPAddress != "10.0.0.1" {
		t.Errorf("Resolve() = %+v", s)
	}

	if err := tokens.Revoke(ctx, token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := tokens.Resolve(ctx, token); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("Resolve after Revoke error = %v, want ErrUnauthorized", err)
	}
	if err := tokens.Revoke(ctx, token); err != nil {
		t.Errorf("second Revoke: %v", err)
	}
}

func TestRedisTokensExpire(t *testing.T) {
	tokens, mr := newRedisTokens(t)
	ctx := context.Background()
	now := time.Now().UTC()

	token, err := tokens.Issue(ctx, models.Session{UserID: "u", CreatedAt: now, ExpiresAt: now.Add(time.Minute)})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := tokens.Resolve(ctx, token); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("Resolve(expired) error = %v, want ErrUnauthorized", err)
	}
}

func TestRedisTokensRevokeAll(t *testing.T) {
	tokens, _ := newRedisTokens(t)
	ctx := context.Background()
	now := time.Now().UTC()

	var issued []string
	for range 3 {
		token, err := tokens.Issue(ctx, models.Session{UserID: "u", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		issued = append(issued, token)
	}

	if err := tokens.RevokeAll(ctx, "u"); err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}
	for _, token := range issued {
		if _, err := tokens.Resolve(ctx, token); !errors.Is(err, models.ErrUnauthorized) {
			t.Errorf("Resolve(%s) after RevokeAll error = %v, want ErrUnauthorized", token, err)
		}
	}
}

func TestRedisTokensUnknown(t *testing.T) {
	tokens, _ := newRedisTokens(t)
	if _, err := tokens.Resolve(context.Background(), "nope"); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("Resolve(unknown) error = %v, want ErrUnauthorized", err)
	}
}

func TestGateLogoutAll(t *testing.T) {
	tokens, mr := newRedisTokens(t)
	g, err := session.NewGate(store.NewMemory(), tokens, session.Options{
		TTL:        time.Hour,
		BcryptCost: bcrypt.MinCost,
		Logger:     log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	ctx := context.Background()

	if _, err := g.Register(ctx, "erin", "erin@example.com", "password1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	other, err := g.Register(ctx, "finn", "finn@example.com", "password1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	login := func(email string) string {
		t.Helper()
		token, err := g.Login(ctx, email, "password1", session.ClientMeta{})
		if err != nil {
			t.Fatalf("Login(%s): %v", email, err)
		}
		return token
	}
	laptop, phone := login("erin@example.com"), login("erin@example.com")
	kept := login("finn@example.com")

	if err := g.LogoutAll(ctx, laptop); err != nil {
		t.Fatalf("LogoutAll: %v", err)
	}
	for _, token := range []string{laptop, phone} {
		if _, err := g.Authenticate(ctx, token); !errors.Is(err, models.ErrUnauthorized) {
			t.Errorf("Authenticate after LogoutAll = %v, want ErrUnauthorized", err)
		}
	}
	if got, err := g.Authenticate(ctx, kept); err != nil || got.ID != other.ID {
		t.Errorf("other account's session = %+v, %v", got, err)
	}
	if err := g.LogoutAll(ctx, laptop); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("LogoutAll(revoked) = %v, want ErrUnauthorized", err)
	}
	if keys := mr.Keys(); len(keys) != 2 {
		t.Errorf("redis keys after LogoutAll = %v, want only finn's session and index", keys)
	}
}
