// Package client provides a typed Go HTTP client for the folio API.
//
// It mirrors the server's endpoint structure: the public portfolio reads,
// the contact form, the analytics event endpoints, and the authenticated
// dashboard operations. All operations use the same
// [github.com/foliohq/folio/pkg/models] entities as the server.
//
// Authentication is token-based: Login obtains a session token, which the
// client then includes as a Bearer header on every request until Logout.
//
// Client instances are safe for concurrent use except for Login/Logout,
// which replace the stored token.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/foliohq/folio/pkg/models"
)

// Client is a folio API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

// NewClient creates a client for the server at baseURL (protocol and host,
// no trailing slash).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetAuthToken sets the authentication token for the client.
func (c *Client) SetAuthToken(token string) {
	c.authToken = token
}

// doRequest performs an HTTP request with proper headers.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	return c.httpClient.Do(req)
}

// decodeResponse decodes the JSON response into the target struct.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Health checks the health status of the server.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Public portfolio

// Portfolio is the aggregated public snapshot.
type Portfolio struct {
	Projects    []models.Project `json:"projects"`
	Profile     *models.Profile  `json:"profile"`
	Resume      *models.Resume   `json:"resume"`
	ClientCount int              `json:"client_count"`
	PageViews   int64            `json:"page_views"`
}

// GetPortfolio fetches the aggregated public snapshot.
func (c *Client) GetPortfolio(ctx context.Context) (*Portfolio, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/portfolio", nil)
	if err != nil {
		return nil, err
	}

	var result Portfolio
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListProjects retrieves all projects.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/projects", nil)
	if err != nil {
		return nil, err
	}

	var result []models.Project
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetProject retrieves one project by ID.
func (c *Client) GetProject(ctx context.Context, id models.ProjectID) (*models.Project, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/projects/%s", id), nil)
	if err != nil {
		return nil, err
	}

	var result models.Project
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendMessage submits a contact form message.
func (c *Client) SendMessage(ctx context.Context, msg *models.ContactMessage) (*models.ContactMessage, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/contact", msg)
	if err != nil {
		return nil, err
	}

	var result models.ContactMessage
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetResume retrieves the resume pointer.
func (c *Client) GetResume(ctx context.Context) (*models.Resume, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/resume", nil)
	if err != nil {
		return nil, err
	}

	var result models.Resume
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RecordPageView reports a page view for the analytics counters.
func (c *Client) RecordPageView(ctx context.Context, path string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/events/page-view", map[string]string{"path": path})
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// RecordDownload reports a resume download.
func (c *Client) RecordDownload(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/events/download", nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// Authentication

// LoginResponse carries the session token returned by Login.
type LoginResponse struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login exchanges credentials for a session token and stores it on the
// client for subsequent requests.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/admin/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var result LoginResponse
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	c.authToken = result.Token
	return &result, nil
}

// Logout revokes the current session and clears the stored token.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/admin/logout", nil)
	if err != nil {
		return err
	}
	c.authToken = ""
	return decodeResponse(resp, nil)
}

// Dashboard operations

// CreateProject creates a new project.
func (c *Client) CreateProject(ctx context.Context, project *models.Project) (*models.Project, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/admin/projects", project)
	if err != nil {
		return nil, err
	}

	var result models.Project
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateProject updates an existing project.
func (c *Client) UpdateProject(ctx context.Context, project *models.Project) (*models.Project, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/admin/projects/%s", project.ID), project)
	if err != nil {
		return nil, err
	}

	var result models.Project
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteProject deletes a project.
func (c *Client) DeleteProject(ctx context.Context, id models.ProjectID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/projects/%s", id), nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// ListMessages retrieves all contact messages.
func (c *Client) ListMessages(ctx context.Context) ([]models.ContactMessage, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/admin/messages", nil)
	if err != nil {
		return nil, err
	}

	var result []models.ContactMessage
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// SetMessageStatus changes a message's workflow status.
func (c *Client) SetMessageStatus(ctx context.Context, id models.MessageID, status models.MessageStatus) error {
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/admin/messages/%s/status", id),
		map[string]models.MessageStatus{"status": status})
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// DeleteMessage deletes a contact message.
func (c *Client) DeleteMessage(ctx context.Context, id models.MessageID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/messages/%s", id), nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// ListClients retrieves the client engagement records.
func (c *Client) ListClients(ctx context.Context) ([]models.Client, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/admin/clients", nil)
	if err != nil {
		return nil, err
	}

	var result []models.Client
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateProfile replaces the profile document. The server skips the remote
// write when the document is unchanged.
func (c *Client) UpdateProfile(ctx context.Context, profile *models.Profile) (bool, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, "/api/admin/profile", profile)
	if err != nil {
		return false, err
	}

	var result struct {
		Written bool `json:"written"`
	}
	if err := decodeResponse(resp, &result); err != nil {
		return false, err
	}
	return result.Written, nil
}

// UpdateResume replaces the resume pointer.
func (c *Client) UpdateResume(ctx context.Context, resume *models.Resume) (bool, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, "/api/admin/resume", resume)
	if err != nil {
		return false, err
	}

	var result struct {
		Written bool `json:"written"`
	}
	if err := decodeResponse(resp, &result); err != nil {
		return false, err
	}
	return result.Written, nil
}

// Analytics is the dashboard analytics payload.
type Analytics struct {
	models.Analytics
	RecentDailyViews []models.DayCount  `json:"recent_daily_views"`
	RankedTopPages   []models.PageCount `json:"ranked_top_pages"`
}

// GetAnalytics retrieves the analytics counters and derived series.
func (c *Client) GetAnalytics(ctx context.Context) (*Analytics, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/admin/analytics", nil)
	if err != nil {
		return nil, err
	}

	var result Analytics
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadProfileImage uploads a new profile photo. The server validates,
// circle-crops, and stores it, then returns the updated profile.
func (c *Client) UploadProfileImage(ctx context.Context, fileName, contentType string, data []byte) (*models.Profile, error) {
	var result struct {
		Profile *models.Profile `json:"profile"`
	}
	if err := c.uploadFile(ctx, "/api/admin/profile/image", fileName, contentType, data, &result); err != nil {
		return nil, err
	}
	return result.Profile, nil
}

// UploadResume uploads a replacement resume file and returns the new
// pointer.
func (c *Client) UploadResume(ctx context.Context, fileName, contentType string, data []byte) (*models.Resume, error) {
	var result struct {
		Resume *models.Resume `json:"resume"`
	}
	if err := c.uploadFile(ctx, "/api/admin/resume/file", fileName, contentType, data, &result); err != nil {
		return nil, err
	}
	return result.Resume, nil
}

func (c *Client) uploadFile(ctx context.Context, path, fileName, contentType string, data []byte, target any) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fw, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName)},
		"Content-Type":        {contentType},
	})
	if err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	return decodeResponse(resp, target)
}
