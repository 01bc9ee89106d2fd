package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"referral_console/internal/model"
)

// GatewayError carries the gateway's human-readable failure message along
// with the HTTP status it arrived with. A zero StatusCode means the gateway
// was unreachable.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// RegisterPayload is the signup body sent to the gateway. It deliberately
// has no confirm-password field; that check never leaves the client.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ResumeFile is an optional uploaded resume forwarded as a multipart file
// part instead of the resume URL field.
type ResumeFile struct {
	Filename string
	Content  io.Reader
}

// Client is the remote access gateway: every operation the stores need from
// the CRMS backend. Calls with a token argument are authenticated.
type Client interface {
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Register(ctx context.Context, payload RegisterPayload) error
	AdminReferrals(ctx context.Context, token string) ([]model.Candidate, error)
	MyReferrals(ctx context.Context, token string) ([]model.Candidate, error)
	SubmitReferral(ctx context.Context, token string, req model.ReferralRequest, file *ResumeFile) (*model.Candidate, error)
	UpdateStatus(ctx context.Context, token, candidateID, status string) (*model.Candidate, error)
	UpdateCandidate(ctx context.Context, token, candidateID string, req model.CandidateUpdateRequest) (*model.Candidate, error)
	DeleteCandidate(ctx context.Context, token, candidateID string) error
	UpdateProfile(ctx context.Context, token string, req model.ProfileUpdateRequest) (*model.User, error)
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

// New creates a gateway client for the given base URL. The timeout bounds
// every call so a stuck gateway cannot leave the stores loading forever.
func New(baseURL string, timeout time.Duration) Client {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Login authenticates against the gateway and returns the user plus token
func (c *httpClient) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	body := map[string]string{"email": email, "password": password}

	var out struct {
		User  model.User `json:"user"`
		Token string     `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/user/login", "", body, &out); err != nil {
		return nil, "", err
	}
	return &out.User, out.Token, nil
}

// Register creates an account. It never returns credentials; the caller
// must log in separately.
func (c *httpClient) Register(ctx context.Context, payload RegisterPayload) error {
	return c.doJSON(ctx, http.MethodPost, "/api/user/signup", "", payload, nil)
}

// AdminReferrals lists every candidate in the system (admin scope)
func (c *httpClient) AdminReferrals(ctx context.Context, token string) ([]model.Candidate, error) {
	var out []model.Candidate
	if err := c.doJSON(ctx, http.MethodGet, "/api/user/admin/referrals", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MyReferrals lists the candidates referred by the calling user. The
// gateway scopes the result from the token; no id is sent.
func (c *httpClient) MyReferrals(ctx context.Context, token string) ([]model.Candidate, error) {
	var out []model.Candidate
	if err := c.doJSON(ctx, http.MethodGet, "/api/user/my-referrals", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitReferral posts a new candidate as a multipart form. The resume is
// either the URL from req or, when file is non-nil, an uploaded file part.
func (c *httpClient) SubmitReferral(ctx context.Context, token string, req model.ReferralRequest, file *ResumeFile) (*model.Candidate, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := map[string]string{
		"name":     req.Name,
		"email":    req.Email,
		"phone":    req.Phone,
		"jobTitle": req.JobTitle,
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to build referral form: %w", err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile("resume", file.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to build resume part: %w", err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, fmt.Errorf("failed to copy resume file: %w", err)
		}
	} else if err := w.WriteField("resume", req.Resume); err != nil {
		return nil, fmt.Errorf("failed to build referral form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize referral form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/user/referal-submit", buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	setAuth(httpReq, token)

	candidate := &model.Candidate{}
	if err := c.send(httpReq, candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

// UpdateStatus transitions a candidate's status (admin scope)
func (c *httpClient) UpdateStatus(ctx context.Context, token, candidateID, status string) (*model.Candidate, error) {
	path := fmt.Sprintf("/api/user/admin/referrals/%s/status", url.PathEscape(candidateID))
	body := map[string]string{"status": status}

	candidate := &model.Candidate{}
	if err := c.doJSON(ctx, http.MethodPut, path, token, body, candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

// UpdateCandidate replaces a candidate's full record (admin scope)
func (c *httpClient) UpdateCandidate(ctx context.Context, token, candidateID string, req model.CandidateUpdateRequest) (*model.Candidate, error) {
	path := fmt.Sprintf("/api/user/admin/referrals/%s", url.PathEscape(candidateID))

	candidate := &model.Candidate{}
	if err := c.doJSON(ctx, http.MethodPut, path, token, req, candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

// DeleteCandidate removes a candidate (admin scope)
func (c *httpClient) DeleteCandidate(ctx context.Context, token, candidateID string) error {
	path := fmt.Sprintf("/api/user/admin/referrals/%s", url.PathEscape(candidateID))
	return c.doJSON(ctx, http.MethodDelete, path, token, nil, nil)
}

// UpdateProfile applies a partial update to the current user
func (c *httpClient) UpdateProfile(ctx context.Context, token string, req model.ProfileUpdateRequest) (*model.User, error) {
	user := &model.User{}
	if err := c.doJSON(ctx, http.MethodPut, "/users/profile", token, req, user); err != nil {
		return nil, err
	}
	return user, nil
}

// doJSON sends a JSON request and decodes a JSON response into out (out may
// be nil when only the status matters).
func (c *httpClient) doJSON(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setAuth(req, token)

	return c.send(req, out)
}

func (c *httpClient) send(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return &GatewayError{Message: fmt.Sprintf("gateway unreachable: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &GatewayError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("malformed gateway response: %v", err)}
	}
	return nil
}

func setAuth(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// decodeError extracts the gateway's message field when present so the
// stores can surface it verbatim.
func decodeError(resp *http.Response) error {
	gerr := &GatewayError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("gateway returned %s", resp.Status),
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return gerr
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			gerr.Message = payload.Message
		} else if payload.Error != "" {
			gerr.Message = payload.Error
		}
	}
	return gerr
}
