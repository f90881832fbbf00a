package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/clinician-portal/internal/errors"
	"github.com/jrsteele09/clinician-portal/profile"
	"golang.org/x/oauth2"
)

// Backend endpoints
const (
	PathRegister         = "/auth/register"
	PathLogin            = "/auth/login"
	PathProfile          = "/auth/profile"
	PathCourses          = "/courses"
	PathCheckout         = "/payments/checkout"
	PathCheckoutStandard = "/payments/checkout/standard"
	PathCheckoutPremium  = "/payments/checkout/premium"

	HeaderRequestID = "X-Request-Id"

	defaultTimeout  = 15 * time.Second
	maxErrorBodyLen = 64 << 10
)

// Client calls the portal backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Applied to httpClient once every option has run.
	timeout     time.Duration
	logRequests bool
	logColour   bool
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient bases the client on a copy of hc (primarily for testing).
// hc itself is never modified.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc == nil {
			return
		}
		copied := *hc
		c.httpClient = &copied
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, options ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[api.New] invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range options {
		opt(c)
	}
	if c.timeout > 0 {
		c.httpClient.Timeout = c.timeout
	}
	if c.logRequests {
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.httpClient.Transport = &loggingTransport{base: base, colour: c.logColour}
	}
	return c, nil
}

// Register creates an account and returns its first session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, c.httpClient, http.MethodPost, PathRegister, req, &resp, "Signup failed"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, c.httpClient, http.MethodPost, PathLogin, req, &resp, "Login failed"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile fetches the signed-in clinician's profile.
func (c *Client) Profile(ctx context.Context, accessToken string) (*profile.Profile, error) {
	hc, err := c.authorized(accessToken)
	if err != nil {
		return nil, err
	}
	var p profile.Profile
	if err := c.do(ctx, hc, http.MethodGet, PathProfile, nil, &p, "Failed to fetch profile"); err != nil {
		return nil, err
	}
	return &p, nil
}

// Courses fetches purchased and available courses plus entitlement flags.
func (c *Client) Courses(ctx context.Context, accessToken string) (*CoursesResponse, error) {
	hc, err := c.authorized(accessToken)
	if err != nil {
		return nil, err
	}
	var resp CoursesResponse
	if err := c.do(ctx, hc, http.MethodGet, PathCourses, nil, &resp, "Failed to fetch courses"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckoutStandard creates a payment session for individual courses.
func (c *Client) CheckoutStandard(ctx context.Context, accessToken string, req StandardCheckoutRequest) (*CheckoutSession, error) {
	return c.checkout(ctx, accessToken, PathCheckoutStandard, req)
}

// CheckoutPremium creates a payment session for the premium plan.
func (c *Client) CheckoutPremium(ctx context.Context, accessToken string, amount int) (*CheckoutSession, error) {
	return c.checkout(ctx, accessToken, PathCheckoutPremium, amountRequest{Amount: amount})
}

// CheckoutPlan creates a payment session for a plan subscription.
func (c *Client) CheckoutPlan(ctx context.Context, accessToken string, amount int) (*CheckoutSession, error) {
	return c.checkout(ctx, accessToken, PathCheckout, amountRequest{Amount: amount})
}

func (c *Client) checkout(ctx context.Context, accessToken, path string, body any) (*CheckoutSession, error) {
	hc, err := c.authorized(accessToken)
	if err != nil {
		return nil, err
	}
	var resp CheckoutSession
	if err := c.do(ctx, hc, http.MethodPost, path, body, &resp, "Checkout failed"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// authorized wraps the base transport so every request carries the bearer token.
func (c *Client) authorized(accessToken string) (*http.Client, error) {
	if accessToken == "" {
		return nil, apperrors.ErrNotAuthenticated
	}
	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
			Base:   base,
		},
		Timeout:       c.httpClient.Timeout,
		CheckRedirect: c.httpClient.CheckRedirect,
		Jar:           c.httpClient.Jar,
	}, nil
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, in, out any, fallbackMsg string) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("[api %s %s] marshal request: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("[api %s %s] build request: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, uuid.NewString())

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("[api %s %s] %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return &Error{StatusCode: resp.StatusCode, Message: decodeErrorMessage(data, fallbackMsg)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("[api %s %s] decode response: %w", method, path, err)
	}
	return nil
}
