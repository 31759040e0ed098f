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

	"github.com/ljthub/authcli/internal/client/models"
)

// Recognized routes of the auth API, relative to the configured base URL.
const (
	routeLogin        = "/auth/login"
	routeMe           = "/auth/me"
	routeRegister     = "/auth/register"
	routeVerifyEmail  = "/auth/verify-email"
	routeResend       = "/auth/resend-verification"
	routeResendPublic = "/auth/public/resend-verification"
)

// clientIDHeader carries the installation id for server-side log
// correlation.
const clientIDHeader = "X-Client-Id"

// errorBodyLimit caps how much of an error response is read while looking
// for the detail field.
const errorBodyLimit = 1 << 20

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

type resendPublicRequest struct {
	Email string `json:"email"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// HTTPClient implements Client against the REST auth API. Requests carry
// no client-side timeout; cancellation is driven by the caller's context.
type HTTPClient struct {
	baseURL  string
	clientID string
	hc       *http.Client
}

// NewHTTPClient builds a client for the API at baseURL. clientID is the
// persistent installation id attached to every request; it may be empty.
func NewHTTPClient(baseURL, clientID string) *HTTPClient {
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		hc:       &http.Client{},
	}
}

// Login posts form-encoded credentials and returns the bearer access
// token.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := c.newRequest(ctx, http.MethodPost, routeLogin, strings.NewReader(form.Encode()), "")
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token models.Token
	if err := c.do(req, &token); err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("login response carried no access token")
	}
	return token.AccessToken, nil
}

// CurrentUser fetches the profile the token authenticates.
func (c *HTTPClient) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, routeMe, nil, token)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := c.do(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Register creates an account and returns the created profile. The caller
// is not authenticated by this call.
func (c *HTTPClient) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	req, err := c.newJSONRequest(ctx, routeRegister, registerRequest{
		Email:    email,
		Username: username,
		Password: password,
	}, "")
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := c.do(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyEmail redeems an email verification token. The response body is
// ignored on success.
func (c *HTTPClient) VerifyEmail(ctx context.Context, token string) error {
	req, err := c.newJSONRequest(ctx, routeVerifyEmail, verifyEmailRequest{Token: token}, "")
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// ResendVerification requests a new verification email for the account the
// bearer token identifies.
func (c *HTTPClient) ResendVerification(ctx context.Context, token string) error {
	req, err := c.newRequest(ctx, http.MethodPost, routeResend, nil, token)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// ResendVerificationPublic requests a new verification email for an
// explicit address through the unauthenticated endpoint.
func (c *HTTPClient) ResendVerificationPublic(ctx context.Context, email string) error {
	req, err := c.newJSONRequest(ctx, routeResendPublic, resendPublicRequest{Email: email}, "")
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *HTTPClient) newRequest(ctx context.Context, method, route string, body io.Reader, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+route, body)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.clientID != "" {
		req.Header.Set(clientIDHeader, c.clientID)
	}
	return req, nil
}

func (c *HTTPClient) newJSONRequest(ctx context.Context, route string, payload any, token string) (*http.Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, route, bytes.NewReader(data), token)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do executes the request, maps failures, and decodes a 2xx body into out
// when out is non-nil.
func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// decodeError turns a non-2xx response into an *APIError, keeping the
// server's detail message when the body parses.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	if err != nil {
		return apiErr
	}

	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		apiErr.Detail = er.Detail
	}
	return apiErr
}
