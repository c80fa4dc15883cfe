package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/easey-git/easey-app-sub001/internal/service/models/message"
)

// Gateway is the WhatsApp Business Cloud API client. It only sends
// pre-approved templates; free-form business-initiated messages are not
// allowed by the platform.
type Gateway struct {
	baseURL       string
	phoneNumberID string
	token         string
	client        *http.Client
}

// option is a function that configures the Gateway.
type option func(*Gateway)

// MustNewGateway creates a new Gateway from config. The access token is
// required; a missing token is a startup failure, not a runtime one.
func MustNewGateway(opts ...option) *Gateway {
	token := os.Getenv("WHATSAPP_ACCESS_TOKEN")
	if token == "" {
		panic("WHATSAPP_ACCESS_TOKEN is not set")
	}

	baseURL := viper.GetString("whatsapp.api_url")
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v17.0"
	}

	phoneNumberID := viper.GetString("whatsapp.phone_number_id")
	if phoneNumberID == "" {
		panic("whatsapp.phone_number_id is not set in config")
	}

	g := &Gateway{
		baseURL:       baseURL,
		phoneNumberID: phoneNumberID,
		token:         token,
		client:        &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// NewGateway creates a Gateway with explicit settings, used by tests.
func NewGateway(baseURL, phoneNumberID, token string, client *http.Client) *Gateway {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	return &Gateway{
		baseURL:       baseURL,
		phoneNumberID: phoneNumberID,
		token:         token,
		client:        client,
	}
}

type templateParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type templateComponent struct {
	Type       string              `json:"type"`
	Parameters []templateParameter `json:"parameters"`
}

type templatePayload struct {
	Name     string `json:"name"`
	Language struct {
		Code string `json:"code"`
	} `json:"language"`
	Components []templateComponent `json:"components,omitempty"`
}

type sendRequest struct {
	MessagingProduct string          `json:"messaging_product"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Template         templatePayload `json:"template"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendTemplate sends one templated message and returns the gateway-assigned
// message id used to correlate later status callbacks. Parameters fill the
// template's body placeholders positionally.
func (g *Gateway) SendTemplate(
	ctx context.Context,
	to string,
	tmpl message.Template,
	params []string,
) (string, error) {
	req := sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
	}
	req.Template.Name = string(tmpl)
	req.Template.Language.Code = "en"

	if len(params) > 0 {
		component := templateComponent{Type: "body"}
		for _, p := range params {
			component.Parameters = append(component.Parameters, templateParameter{
				Type: "text",
				Text: p,
			})
		}
		req.Template.Components = []templateComponent{component}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", g.baseURL, g.phoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build send request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call whatsapp api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read whatsapp response: %w", err)
	}

	var parsed sendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode whatsapp response: %w", err)
	}

	if resp.StatusCode >= 400 || parsed.Error != nil {
		msg := ""
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("whatsapp api error (status %d): %s", resp.StatusCode, msg)
	}

	if len(parsed.Messages) == 0 {
		return "", fmt.Errorf("whatsapp api returned no message id")
	}

	return parsed.Messages[0].ID, nil
}
