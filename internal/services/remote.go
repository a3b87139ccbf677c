package services

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/tapedeck/internal/shared"
)

const maxRemoteFileSize = 512 << 20

// RemoteService reads audio from plain HTTP(S) URLs. No special headers are sent.
type RemoteService struct {
	httpClient *http.Client
}

// NewRemoteService creates a RemoteService. A nil client means [http.DefaultClient].
func NewRemoteService(client *http.Client) *RemoteService {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteService{httpClient: client}
}

func (s *RemoteService) Name() string {
	return "http"
}

// Open starts a GET and returns the body for streaming. The caller closes it.
func (s *RemoteService) Open(ctx context.Context, rawURL string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, "", fmt.Errorf("%w: %s returned status %d", shared.ErrAPIRequest, rawURL, resp.StatusCode)
	}

	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// Fetch downloads the whole file at rawURL.
func (s *RemoteService) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	body, mimeType, err := s.Open(ctx, rawURL)
	if err != nil {
		return nil, "", err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxRemoteFileSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response: %w", err)
	}
	if len(data) > maxRemoteFileSize {
		return nil, "", fmt.Errorf("%w: %s exceeds %d bytes", shared.ErrAPIRequest, rawURL, maxRemoteFileSize)
	}
	return data, mimeType, nil
}
