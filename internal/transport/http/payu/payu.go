package payu

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// service is an interface for the service layer.
type service interface {
	HandlePaymentConfirmed(ctx context.Context, orderID string) error
}

// Callback handles the PayU server-to-server payment callback. The reverse
// hash gates the state machine: only a callback whose hash checks out may
// mark the order paid. Mismatches are acknowledged inertly so the gateway
// does not retry, and operators see them in the logs.
func Callback(w http.ResponseWriter, r *http.Request, service service) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error parsing payu callback form", "error", err)

		return
	}

	form := r.PostForm
	status := form.Get("status")
	orderID := form.Get("udf1")

	if !verifyHash(form.Get("hash"), map[string]string{
		"status":      status,
		"udf5":        form.Get("udf5"),
		"udf4":        form.Get("udf4"),
		"udf3":        form.Get("udf3"),
		"udf2":        form.Get("udf2"),
		"udf1":        orderID,
		"email":       form.Get("email"),
		"firstname":   form.Get("firstname"),
		"productinfo": form.Get("productinfo"),
		"amount":      form.Get("amount"),
		"txnid":       form.Get("txnid"),
	}) {
		slog.Warn("PayU callback hash mismatch", "txnid", form.Get("txnid"))
		ack(w)

		return
	}

	if status != "success" || orderID == "" {
		slog.Info("PayU callback without successful payment", "status", status, "txnid", form.Get("txnid"))
		ack(w)

		return
	}

	if err := service.HandlePaymentConfirmed(r.Context(), orderID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error confirming payment", "order_id", orderID, "error", err)

		return
	}

	ack(w)
}

func ack(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// verifyHash recomputes the PayU reverse hash:
// sha512(salt|status|udf5|udf4|udf3|udf2|udf1|email|firstname|productinfo|amount|txnid|key).
func verifyHash(got string, fields map[string]string) bool {
	salt := os.Getenv("PAYU_SALT")
	key := viper.GetString("payu.merchant_key")
	if salt == "" || key == "" || got == "" {
		return false
	}

	parts := []string{
		salt,
		fields["status"],
		"", "", "", "", "", "",
		fields["udf5"],
		fields["udf4"],
		fields["udf3"],
		fields["udf2"],
		fields["udf1"],
		fields["email"],
		fields["firstname"],
		fields["productinfo"],
		fields["amount"],
		fields["txnid"],
		key,
	}

	sum := sha512.Sum512([]byte(strings.Join(parts, "|")))

	return hex.EncodeToString(sum[:]) == strings.ToLower(got)
}
