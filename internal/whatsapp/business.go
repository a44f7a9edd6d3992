package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/contaflow/contaflow/internal/service"
)

// BusinessClient talks to the WhatsApp Business Cloud API. Recipients carry
// the "@s.whatsapp.net" suffix and calls authenticate with a Bearer token.
type BusinessClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func (c *BusinessClient) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.token}
}

// SendMessage delivers a text message through the Business API.
func (c *BusinessClient) SendMessage(ctx context.Context, phone, text string) service.SendResult {
	number, err := NormalizePhone(phone)
	if err != nil {
		return sendFailure(err)
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                number + "@s.whatsapp.net",
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	status, body, err := postJSON(ctx, c.httpClient, c.baseURL+"/messages", c.headers(), payload)
	if err != nil {
		return sendFailure(err)
	}
	if status < 200 || status > 299 {
		return sendFailure(fmt.Errorf("gateway returned status %d: %s", status, string(body)))
	}

	slog.Info("whatsapp message sent", "provider", "business", "number", number)
	return service.SendResult{Success: true}
}

// CheckInstanceStatus probes the API root. The Business API has no instance
// concept, so reachability counts as connected.
func (c *BusinessClient) CheckInstanceStatus(ctx context.Context) service.InstanceStatus {
	if err := getJSON(ctx, c.httpClient, c.baseURL, c.headers(), nil); err != nil {
		return statusFailure(err)
	}
	return service.InstanceStatus{Success: true, Status: "reachable", Connected: true}
}
