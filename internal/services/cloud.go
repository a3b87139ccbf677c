package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/desertthunder/tapedeck/internal/shared"
)

const (
	defaultCloudBaseURL  = "https://www.googleapis.com/drive/v3"
	defaultCloudTokenURL = "https://oauth2.googleapis.com/token"
	maxCloudFileSize     = 512 << 20
)

// CloudFile is the metadata of a cloud drive file.
type CloudFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     string `json:"size"`
}

// cloudFileList is the response body of a folder listing.
type cloudFileList struct {
	Files         []CloudFile `json:"files"`
	NextPageToken string      `json:"nextPageToken"`
}

// CloudDriveService fetches audio files from a cloud drive with externally supplied OAuth2 tokens.
//
// The OAuth flow itself happens elsewhere; Authenticate accepts an access token and an optional
// refresh token, and the [oauth2] client refreshes expired tokens transparently.
type CloudDriveService struct {
	provider   string
	baseURL    string
	config     *oauth2.Config
	mu         sync.RWMutex
	httpClient *http.Client
	base       *http.Client
}

// NewCloudDriveService creates a cloud drive client. Empty URLs fall back to Google Drive.
func NewCloudDriveService(cfg shared.CloudConfig, client *http.Client) *CloudDriveService {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultCloudBaseURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultCloudTokenURL
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "drive"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &CloudDriveService{
		provider: provider,
		baseURL:  baseURL,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		},
		base: client,
	}
}

func (s *CloudDriveService) Name() string {
	return s.provider
}

// Authenticate installs the tokens. A refresh token enables automatic renewal.
func (s *CloudDriveService) Authenticate(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken == "" && refreshToken == "" {
		return fmt.Errorf("%w: cloud access token", shared.ErrMissingCredentials)
	}

	token := &oauth2.Token{AccessToken: accessToken, RefreshToken: refreshToken, TokenType: "Bearer"}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.base)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.httpClient = s.config.Client(ctx, token)
	return nil
}

// Authenticated reports whether tokens have been installed.
func (s *CloudDriveService) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.httpClient != nil
}

// Fetch downloads the content of fileID.
func (s *CloudDriveService) Fetch(ctx context.Context, fileID string) ([]byte, string, error) {
	resp, err := s.get(ctx, "/files/"+url.PathEscape(fileID), url.Values{"alt": {"media"}})
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCloudFileSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read cloud file: %w", err)
	}
	if len(data) > maxCloudFileSize {
		return nil, "", fmt.Errorf("%w: cloud file %s exceeds %d bytes", shared.ErrAPIRequest, fileID, maxCloudFileSize)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// Metadata returns the name, mime type and size of fileID.
func (s *CloudDriveService) Metadata(ctx context.Context, fileID string) (*CloudFile, error) {
	resp, err := s.get(ctx, "/files/"+url.PathEscape(fileID), url.Values{"fields": {"id,name,mimeType,size"}})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var file CloudFile
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &file, nil
}

// ListAudio returns the audio files directly inside folderID, following pagination.
func (s *CloudDriveService) ListAudio(ctx context.Context, folderID string) ([]CloudFile, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType contains 'audio/' and trashed = false", strings.ReplaceAll(folderID, "'", `\'`))
	files := []CloudFile{}
	pageToken := ""

	for {
		params := url.Values{
			"q":      {query},
			"fields": {"nextPageToken,files(id,name,mimeType,size)"},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		resp, err := s.get(ctx, "/files", params)
		if err != nil {
			return nil, err
		}

		var page cloudFileList
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		files = append(files, page.Files...)
		if page.NextPageToken == "" {
			return files, nil
		}
		pageToken = page.NextPageToken
	}
}

// get performs an authenticated GET and checks the status code.
func (s *CloudDriveService) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	s.mu.RLock()
	client := s.httpClient
	s.mu.RUnlock()
	if client == nil {
		return nil, fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := s.baseURL + path
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("%w: %s API status %d", shared.ErrNotAuthenticated, s.provider, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s API status %d", shared.ErrAPIRequest, s.provider, resp.StatusCode)
	}

	return resp, nil
}
