package mailer_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"todolist/mailer"
	"todolist/models"
)

func TestSendWelcome(t *testing.T) {
	var gotPath, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := mailer.NewSendGrid("SG.test", "noreply@example.com", srv.URL)
	err := m.SendWelcome(context.Background(), models.Account{Username: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("SendWelcome: %v", err)
	}

	if gotPath != "/v3/mail/send" {
		t.Errorf("path = %q, want /v3/mail/send", gotPath)
	}
	if gotAuth != "Bearer SG.test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	for _, want := range []string{"alice@example.com", "noreply@example.com", "Welcome to todolist"} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("body missing %q: %s", want, gotBody)
		}
	}
}

func TestSendWelcomeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"message":"bad key"}]}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := mailer.NewSendGrid("bad", "noreply@example.com", srv.URL)
	if err := m.SendWelcome(context.Background(), models.Account{Email: "a@example.com"}); err == nil {
		t.Fatal("SendWelcome() succeeded on 401, want error")
	}
}

func TestNoop(t *testing.T) {
	if err := (mailer.Noop{}).SendWelcome(context.Background(), models.Account{}); err != nil {
		t.Errorf("Noop.SendWelcome() = %v", err)
	}
}
