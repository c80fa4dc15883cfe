package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/schema"
	"github.com/spf13/viper"
)

// service is an interface for the service layer.
type service interface {
	Process(ctx context.Context, body []byte, query url.Values) error
}

// verifyRequest carries the WhatsApp webhook subscription handshake params.
type verifyRequest struct {
	Mode        string `schema:"hub.mode"`
	VerifyToken string `schema:"hub.verify_token"`
	Challenge   string `schema:"hub.challenge"`
}

// Verify answers the WhatsApp webhook subscription handshake: echo the
// challenge when the token matches, 403 otherwise.
func Verify(w http.ResponseWriter, r *http.Request) {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	req := &verifyRequest{}
	if err := decoder.Decode(req, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding verification request", "error", err)

		return
	}

	expected := viper.GetString("whatsapp.verify_token")
	if req.Mode != "subscribe" || expected == "" || req.VerifyToken != expected {
		http.Error(w, "verification token mismatch", http.StatusForbidden)
		slog.Warn("Webhook verification rejected", "mode", req.Mode)

		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(req.Challenge))
}

// Handle ingests one webhook delivery. Recognized-but-inert and unknown
// payloads are acknowledged with 200 so the sender never retries; 500 is
// reserved for unexpected internal failures.
func Handle(w http.ResponseWriter, r *http.Request, service service) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error reading webhook body", "error", err)

		return
	}

	if err := service.Process(r.Context(), body, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error processing webhook", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
