package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Service posts signed events to a single downstream endpoint.
type Service struct {
	url    string
	secret string
	client *http.Client
}

func NewService(url, secret string) *Service {
	return &Service{
		url:    url,
		secret: secret,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Deliver makes one delivery attempt. Any non-2xx answer is an error.
func (s *Service) Deliver(ctx context.Context, eventType string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(s.secret, payload))
	req.Header.Set(EventHeader, eventType)
	req.Header.Set("User-Agent", "Neotriage-Webhook/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send webhook: HTTP %d", resp.StatusCode)
	}

	return nil
}
