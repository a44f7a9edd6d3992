package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/contaflow/contaflow/internal/service"
)

// EvolutionClient talks to an Evolution API instance. Evolution identifies
// recipients by bare digits and authenticates with an "apikey" header.
type EvolutionClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	instanceID string
}

type evolutionInstance struct {
	Instance struct {
		InstanceName string `json:"instanceName"`
		Status       string `json:"status"`
	} `json:"instance"`
}

func (c *EvolutionClient) headers() map[string]string {
	return map[string]string{"apikey": c.apiKey}
}

// SendMessage delivers a text message through the instance. The instance is
// poked with a connect call first, which revives sessions that dropped.
func (c *EvolutionClient) SendMessage(ctx context.Context, phone, text string) service.SendResult {
	number, err := NormalizePhone(phone)
	if err != nil {
		return sendFailure(err)
	}

	connectURL := fmt.Sprintf("%s/instance/connect/%s", c.baseURL, c.instanceID)
	if err := getJSON(ctx, c.httpClient, connectURL, c.headers(), nil); err != nil {
		slog.Warn("evolution instance connect failed", "error", err)
	}

	payload := map[string]string{
		"number": number,
		"text":   text,
	}
	sendURL := fmt.Sprintf("%s/message/sendText/%s", c.baseURL, c.instanceID)
	status, body, err := postJSON(ctx, c.httpClient, sendURL, c.headers(), payload)
	if err != nil {
		return sendFailure(err)
	}
	if status < 200 || status > 299 {
		return sendFailure(fmt.Errorf("gateway returned status %d: %s", status, string(body)))
	}

	slog.Info("whatsapp message sent", "provider", "evolution", "number", number)
	return service.SendResult{Success: true}
}

// CheckInstanceStatus reports whether this client's instance is connected.
// Evolution reports "open" (or "connected" on older versions) for a live
// session.
func (c *EvolutionClient) CheckInstanceStatus(ctx context.Context) service.InstanceStatus {
	var instances []evolutionInstance
	url := c.baseURL + "/instance/fetchInstances"
	if err := getJSON(ctx, c.httpClient, url, c.headers(), &instances); err != nil {
		return statusFailure(err)
	}

	for _, inst := range instances {
		if inst.Instance.InstanceName != c.instanceID {
			continue
		}
		state := strings.ToLower(inst.Instance.Status)
		return service.InstanceStatus{
			Success:   true,
			Status:    inst.Instance.Status,
			Connected: state == "open" || state == "connected",
		}
	}
	return statusFailure(fmt.Errorf("instance %q not found", c.instanceID))
}
