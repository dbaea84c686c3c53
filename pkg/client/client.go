// Package client is a Go client for the matflow HTTP API.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"matflow/domain/core/entities"
	"matflow/pkg/common"

	"github.com/go-resty/resty/v2"
)

// TokenCookie is the jar cookie holding the session token.
const TokenCookie = "matflow_token"

// APIError is returned for every non-2xx response
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("matflow: HTTP %d", e.Status)
	}
	return fmt.Sprintf("matflow: HTTP %d: %s", e.Status, e.Message)
}

// Client talks to one matflow server
type Client struct {
	http    *resty.Client
	jar     http.CookieJar
	baseURL *url.URL
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithHTTPClient sends requests through hc. Its cookie jar is replaced.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = resty.NewWithClient(hc).SetBaseURL(c.baseURL.String()).SetCookieJar(c.jar)
	}
}

// New creates a client for the server at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{jar: jar, baseURL: u}
	c.http = resty.New().
		SetBaseURL(u.String()).
		SetCookieJar(jar).
		SetTimeout(30 * time.Second)
	for _, opt := range opts {
		opt(c)
	}
	c.http.SetHeader("Accept", "application/json")
	return c, nil
}

// Token returns the session token stored by Login, if any.
func (c *Client) Token() string {
	for _, cookie := range c.jar.Cookies(c.baseURL) {
		if cookie.Name == TokenCookie {
			return cookie.Value
		}
	}
	return ""
}

func (c *Client) setToken(token string, ttl time.Duration) {
	cookie := &http.Cookie{Name: TokenCookie, Value: token, Path: "/"}
	if ttl > 0 {
		cookie.Expires = time.Now().Add(ttl)
	} else {
		cookie.MaxAge = -1
	}
	c.jar.SetCookies(c.baseURL, []*http.Cookie{cookie})
}

type messageBody struct {
	Message string `json:"message"`
}

// request starts a request carrying the stored bearer token.
func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx).SetError(&messageBody{})
	if token := c.Token(); token != "" {
		req.SetAuthToken(token)
	}
	return req
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*messageBody); ok {
		apiErr.Message = body.Message
	}
	return apiErr
}

// Register creates an account
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	return check(c.request(ctx).
		SetBody(map[string]string{"username": username, "email": email, "password": password}).
		Post("/users/register"))
}

// Session is the result of a successful login
type Session struct {
	Message string              `json:"message"`
	Token   string              `json:"token"`
	User    entities.PublicUser `json:"user"`
}

// Login signs in and keeps the token for later calls
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := check(c.request(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&session).
		Post("/users/login"))
	if err != nil {
		return nil, err
	}
	c.setToken(session.Token, 24*time.Hour)
	return &session, nil
}

// Logout forgets the stored token
func (c *Client) Logout() {
	c.setToken("", 0)
}

// CurrentUser returns the signed-in account
func (c *Client) CurrentUser(ctx context.Context) (*entities.PublicUser, error) {
	var out struct {
		User entities.PublicUser `json:"user"`
	}
	if err := check(c.request(ctx).SetResult(&out).Get("/users/current")); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) update(ctx context.Context, field, value string) error {
	return check(c.request(ctx).
		SetBody(map[string]string{field: value}).
		Patch("/users/update/" + field))
}

// UpdateName replaces the display name
func (c *Client) UpdateName(ctx context.Context, name string) error {
	return c.update(ctx, "name", name)
}

// UpdateUsername replaces the username
func (c *Client) UpdateUsername(ctx context.Context, username string) error {
	return c.update(ctx, "username", username)
}

// UpdateInstitution replaces the institution
func (c *Client) UpdateInstitution(ctx context.Context, institution string) error {
	return c.update(ctx, "institution", institution)
}

// UpdateEmail replaces the email
func (c *Client) UpdateEmail(ctx context.Context, email string) error {
	return c.update(ctx, "email", email)
}

// UpdatePassword replaces the password
func (c *Client) UpdatePassword(ctx context.Context, password string) error {
	return c.update(ctx, "password", password)
}

// UploadAvatar uploads a profile image and returns its public URL
func (c *Client) UploadAvatar(ctx context.Context, filename string, image io.Reader) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := check(c.request(ctx).
		SetFileReader("image", filename, image).
		SetResult(&out).
		Post("/users/update/img"))
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

// DeleteAccount removes the account and its workflows, then logs out
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := check(c.request(ctx).Delete("/users/delete")); err != nil {
		return err
	}
	c.Logout()
	return nil
}

// SaveWorkflow stores an exported workflow and returns the new record
func (c *Client) SaveWorkflow(ctx context.Context, workflow string) (*entities.WorkflowView, error) {
	var out struct {
		Workflow entities.WorkflowView `json:"workflow"`
	}
	err := check(c.request(ctx).
		SetBody(map[string]string{"workflow": workflow}).
		SetResult(&out).
		Post("/workflows"))
	if err != nil {
		return nil, err
	}
	return &out.Workflow, nil
}

// WorkflowPage is one page of saved workflows
type WorkflowPage struct {
	Workflows  []entities.WorkflowView `json:"workflows"`
	Pagination *common.PaginationInfo  `json:"pagination"`
}

// ListWorkflows lists saved workflows, newest first
func (c *Client) ListWorkflows(ctx context.Context, page, pageSize int) (*WorkflowPage, error) {
	var out WorkflowPage
	err := check(c.request(ctx).
		SetQueryParams(map[string]string{
			"page":      strconv.Itoa(page),
			"page_size": strconv.Itoa(pageSize),
		}).
		SetResult(&out).
		Get("/workflows"))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetWorkflow fetches one saved workflow
func (c *Client) GetWorkflow(ctx context.Context, id string) (*entities.WorkflowView, error) {
	var out struct {
		Workflow entities.WorkflowView `json:"workflow"`
	}
	err := check(c.request(ctx).
		SetPathParam("id", id).
		SetResult(&out).
		Get("/workflows/{id}"))
	if err != nil {
		return nil, err
	}
	return &out.Workflow, nil
}

// DeleteWorkflow removes one saved workflow
func (c *Client) DeleteWorkflow(ctx context.Context, id string) error {
	return check(c.request(ctx).SetPathParam("id", id).Delete("/workflows/{id}"))
}
