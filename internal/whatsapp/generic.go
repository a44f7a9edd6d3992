package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/contaflow/contaflow/internal/service"
)

// GenericClient talks to a simple bearer-token send API, for self-hosted
// gateways that expose a single POST /send endpoint.
type GenericClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func (c *GenericClient) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.token}
}

// SendMessage delivers a text message through the gateway.
func (c *GenericClient) SendMessage(ctx context.Context, phone, text string) service.SendResult {
	number, err := NormalizePhone(phone)
	if err != nil {
		return sendFailure(err)
	}

	payload := map[string]string{
		"phone":   number + "@s.whatsapp.net",
		"message": text,
	}
	status, body, err := postJSON(ctx, c.httpClient, c.baseURL+"/send", c.headers(), payload)
	if err != nil {
		return sendFailure(err)
	}
	if status < 200 || status > 299 {
		return sendFailure(fmt.Errorf("gateway returned status %d: %s", status, string(body)))
	}

	slog.Info("whatsapp message sent", "provider", "generic", "number", number)
	return service.SendResult{Success: true}
}

// CheckInstanceStatus probes the gateway root. Reachability counts as
// connected.
func (c *GenericClient) CheckInstanceStatus(ctx context.Context) service.InstanceStatus {
	if err := getJSON(ctx, c.httpClient, c.baseURL, c.headers(), nil); err != nil {
		return statusFailure(err)
	}
	return service.InstanceStatus{Success: true, Status: "reachable", Connected: true}
}
