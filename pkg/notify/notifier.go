package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// httpNotifier posts notification requests to an HTTP endpoint, one
// attempt per request.
type httpNotifier struct {
	endpoint string
	client   *http.Client
}

func NewHTTPNotifier(endpoint string, timeout time.Duration) Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpNotifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (n *httpNotifier) Send(ctx context.Context, req NotificationRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal notification request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("notification call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notification service returned %s", resp.Status)
	}
	return nil
}

// noopNotifier is used when no endpoint is configured.
type noopNotifier struct{}

func (noopNotifier) Send(context.Context, NotificationRequest) error {
	return nil
}
