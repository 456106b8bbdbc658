package integration

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// FileClient talks to the file service that holds staged attachment bytes.
// This service only stores references; rejected submissions must have their
// staged artifacts discarded here.
type FileClient interface {
	DeleteFile(ctx context.Context, fileID string) error
	Discard(ctx context.Context, fileIDs []string)
}

type fileClient struct {
	baseURL    string
	timeout    time.Duration
	retryCount int
	retryDelay time.Duration
	client     *http.Client
	logger     zerolog.Logger
}

func NewFileClient(baseURL string, timeout time.Duration, retryCount int, retryDelay time.Duration, logger zerolog.Logger) FileClient {
	return &fileClient{
		baseURL:    baseURL,
		timeout:    timeout,
		retryCount: retryCount,
		retryDelay: retryDelay,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *fileClient) DeleteFile(ctx context.Context, fileID string) error {
	url := fmt.Sprintf("%s/api/v1/files/%s", c.baseURL, fileID)

	var lastErr error
	for i := 0; i <= c.retryCount; i++ {
		if i > 0 {
			c.logger.Warn().Int("attempt", i).Str("file_id", fileID).Msg("Retrying file delete")
			time.Sleep(c.retryDelay * time.Duration(i))
		}

		req, err := http.NewRequestWithContext(ctx, "DELETE", url, nil)
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to delete file: %w", err)
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound {
			return nil
		}

		lastErr = fmt.Errorf("file service returned status %d", resp.StatusCode)
	}

	return fmt.Errorf("failed to delete file after %d attempts: %w", c.retryCount+1, lastErr)
}

// Discard is best-effort cleanup of staged artifacts on a rejected
// submission. Failures are logged, never surfaced to the caller.
func (c *fileClient) Discard(ctx context.Context, fileIDs []string) {
	for _, fileID := range fileIDs {
		if err := c.DeleteFile(ctx, fileID); err != nil {
			c.logger.Error().Err(err).Str("file_id", fileID).Msg("Failed to discard staged file")
		}
	}
}
