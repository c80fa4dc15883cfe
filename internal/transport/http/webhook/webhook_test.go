package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

type fakeService struct {
	err   error
	calls int
	query url.Values
}

func (s *fakeService) Process(_ context.Context, _ []byte, query url.Values) error {
	s.calls++
	s.query = query
	return s.err
}

func TestVerifyEchoesChallenge(t *testing.T) {
	viper.Set("whatsapp.verify_token", "secret-token")
	defer viper.Set("whatsapp.verify_token", "")

	req := httptest.NewRequest(http.MethodGet,
		"/api/webhook?hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()

	Verify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "12345" {
		t.Fatalf("body = %q, want the challenge echoed", got)
	}
}

func TestVerifyRejectsBadToken(t *testing.T) {
	viper.Set("whatsapp.verify_token", "secret-token")
	defer viper.Set("whatsapp.verify_token", "")

	cases := []string{
		"/api/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345",
		"/api/webhook?hub.mode=unsubscribe&hub.verify_token=secret-token&hub.challenge=12345",
		"/api/webhook",
	}
	for _, target := range cases {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()

		Verify(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s: status = %d, want 403", target, rec.Code)
		}
	}
}

func TestVerifyRejectsWhenUnconfigured(t *testing.T) {
	viper.Set("whatsapp.verify_token", "")

	req := httptest.NewRequest(http.MethodGet,
		"/api/webhook?hub.mode=subscribe&hub.verify_token=&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()

	Verify(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 with no configured token", rec.Code)
	}
}

func TestHandleAcknowledges(t *testing.T) {
	svc := &fakeService{}
	req := httptest.NewRequest(http.MethodPost, "/api/webhook?abandoned=1",
		strings.NewReader(`{"cart_id":"abc123"}`))
	rec := httptest.NewRecorder()

	Handle(rec, req, svc)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"status":"ok"}` {
		t.Fatalf("body = %q", got)
	}
	if svc.calls != 1 {
		t.Fatalf("service called %d times", svc.calls)
	}
	if svc.query.Get("abandoned") != "1" {
		t.Fatal("query parameters not passed through")
	}
}

func TestHandleInternalError(t *testing.T) {
	svc := &fakeService{err: errors.New("pg down")}
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	Handle(rec, req, svc)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
