package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// PushClient delivers realtime notifications through the push gateway.
// Delivery is the gateway's concern; callers treat failures as non-fatal.
type PushClient interface {
	Notify(ctx context.Context, teacherIDs []string, event string, payload interface{}) error
}

type pushClient struct {
	baseURL        string
	notifyEndpoint string
	timeout        time.Duration
	retryCount     int
	retryDelay     time.Duration
	client         *http.Client
	logger         zerolog.Logger
}

type pushRequest struct {
	TeacherIDs []string    `json:"teacher_ids"`
	Event      string      `json:"event"`
	Payload    interface{} `json:"payload"`
}

func NewPushClient(baseURL, notifyEndpoint string, timeout time.Duration, retryCount int, retryDelay time.Duration, logger zerolog.Logger) PushClient {
	return &pushClient{
		baseURL:        baseURL,
		notifyEndpoint: notifyEndpoint,
		timeout:        timeout,
		retryCount:     retryCount,
		retryDelay:     retryDelay,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *pushClient) Notify(ctx context.Context, teacherIDs []string, event string, payload interface{}) error {
	if len(teacherIDs) == 0 {
		return nil
	}

	body, err := json.Marshal(pushRequest{
		TeacherIDs: teacherIDs,
		Event:      event,
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push request: %w", err)
	}

	url := c.baseURL + c.notifyEndpoint

	var lastErr error
	for i := 0; i <= c.retryCount; i++ {
		if i > 0 {
			c.logger.Warn().Int("attempt", i).Str("event", event).Msg("Retrying push notification")
			time.Sleep(c.retryDelay * time.Duration(i))
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to send push notification: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted {
			resp.Body.Close()
			return nil
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("push gateway returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return fmt.Errorf("failed to push notification after %d attempts: %w", c.retryCount+1, lastErr)
}
