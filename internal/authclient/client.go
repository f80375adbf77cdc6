// Package authclient speaks the wire protocol of the remote authorization
// service and owns the current in-memory authorization record.
//
// The client reconciles the server clock with the local one: whenever a
// response carries server_time, the observed offset is stored and every
// expiry comparison uses the locally corrected instant. Raw server
// timestamps are never compared against the raw local clock.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/digitalchief/clientauth/internal/common"
	"github.com/digitalchief/clientauth/internal/config"
	"github.com/digitalchief/clientauth/internal/logging"
	"github.com/digitalchief/clientauth/internal/models"
	"github.com/digitalchief/clientauth/internal/statestore"
	"github.com/digitalchief/clientauth/internal/timex"
)

// Operator-facing messages, matching what the original tool showed its
// (zh-CN) users. A server-provided message always wins over these.
const (
	msgLoginUnreachable    = "无法连接授权服务"
	msgStatusUnreachable   = "授权状态检查失败"
	msgInvalidResponse     = "授权服务返回了无效的响应"
	msgLoginMissingFields  = "授权服务返回数据缺失"
	msgStatusMissingFields = "授权状态响应缺少必要字段"
	msgAccountDisabled     = "账号已被禁用"
	msgExpired             = "授权已到期，请联系管理员续期"
)

// maxResponseBytes bounds how much of a response body is read; the
// service's replies are tiny and anything larger is garbage.
const maxResponseBytes = 1 << 20

type loginRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	ClientVersion string `json:"client_version"`
}

type authResponse struct {
	AccessToken   string          `json:"access_token"`
	ExpiresAt     timex.Timestamp `json:"expires_at"`
	AccountStatus string          `json:"account_status"`
	ServerTime    timex.Timestamp `json:"server_time"`
	Message       string          `json:"message"`
	Error         string          `json:"error"`
}

func (r *authResponse) errorMessage(statusCode int) string {
	if r.Message != "" {
		return r.Message
	}
	if r.Error != "" {
		return r.Error
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}

// Client talks to the /auth/login and /auth/status endpoints. All mutable
// state is replaced whole under a mutex: concurrent callers get
// last-write-wins semantics, never a partially updated record.
type Client struct {
	baseURL       string
	clientVersion string
	httpc         *http.Client
	store         *statestore.Store
	log           logging.Logger

	statusInterval time.Duration
	retryDelay     time.Duration
	maxFailures    int

	// now is a test seam for the local clock.
	now func() time.Time

	mu          sync.Mutex
	state       *models.AuthState
	offset      time.Duration // server clock minus local clock at receipt
	localExpiry time.Time     // expiry corrected to the local clock
}

// New constructs a Client. The config must already be normalized.
func New(cfg *config.Config, store *statestore.Store, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		clientVersion:  cfg.ClientVersion,
		httpc:          &http.Client{Timeout: cfg.RequestTimeout},
		store:          store,
		log:            log,
		statusInterval: cfg.StatusInterval,
		retryDelay:     cfg.RetryDelay,
		maxFailures:    cfg.MaxStatusFailures,
		now:            time.Now,
	}
}

// State returns a snapshot of the current record, or nil when
// unauthenticated.
func (c *Client) State() *models.AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// AccessToken returns the current token, or "" when unauthenticated.
func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil {
		return ""
	}
	return c.state.AccessToken
}

// LocalExpiry returns the expiry instant corrected to the local clock.
// The zero time means unauthenticated.
func (c *Client) LocalExpiry() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.localExpiry
}

// LoadCachedState restores the record persisted by a previous run. An
// expired record is purged from disk and nil is returned instead of a
// stale session.
func (c *Client) LoadCachedState(ctx context.Context) *models.AuthState {
	state := c.store.Load()
	if state == nil {
		return nil
	}

	c.apply(state)
	if err := c.ensureNotExpired(); err != nil {
		c.log.Info(ctx, "cached authorization expired, purging", "username", state.Username)
		c.ClearCachedState(ctx)
		return nil
	}

	c.log.Debug(ctx, "cached authorization restored",
		"username", state.Username, "local_expiry", c.LocalExpiry())
	return state
}

// ClearCachedState resets the client to unauthenticated and removes the
// state file.
func (c *Client) ClearCachedState(ctx context.Context) {
	if err := c.store.Clear(); err != nil {
		c.log.Warn(ctx, "failed to remove state file", "error", err)
	}
	c.mu.Lock()
	c.state = nil
	c.offset = 0
	c.localExpiry = time.Time{}
	c.mu.Unlock()
}

// Login authenticates with credentials and, on success, applies and
// persists the new record. Login is never retried here: interactive
// callers must see failures immediately.
func (c *Client) Login(ctx context.Context, username, password string) (*models.AuthState, error) {
	body, err := json.Marshal(loginRequest{
		Username:      username,
		Password:      password,
		ClientVersion: c.clientVersion,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.do(req, msgLoginUnreachable)
	if err != nil {
		return nil, err
	}

	state, err := c.stateFromLoginResponse(username, data)
	if err != nil {
		return nil, err
	}

	c.apply(state)
	if err := c.ensureNotExpired(); err != nil {
		c.ClearCachedState(ctx)
		return nil, err
	}
	if err := c.store.Save(state); err != nil {
		return nil, fmt.Errorf("persist authorization state: %w", err)
	}

	c.log.Info(ctx, "login succeeded",
		"username", username, "local_expiry", c.LocalExpiry())
	return state, nil
}

// CheckStatus re-validates the current token against the service. A
// revocation (HTTP 401, inactive status, or expiry) purges the cache so a
// restart cannot resurrect the session.
func (c *Client) CheckStatus(ctx context.Context) (*models.AuthState, error) {
	c.mu.Lock()
	prev := c.state.Clone()
	c.mu.Unlock()
	if prev == nil || prev.AccessToken == "" {
		return nil, common.ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/status", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+prev.AccessToken)

	data, err := c.do(req, msgStatusUnreachable)
	if err != nil {
		if IsRevoked(err) {
			c.ClearCachedState(ctx)
		}
		return nil, err
	}

	state, err := c.stateFromStatusResponse(prev, data)
	if err != nil {
		if IsRevoked(err) {
			c.ClearCachedState(ctx)
		}
		return nil, err
	}

	c.apply(state)
	if err := c.ensureNotExpired(); err != nil {
		c.ClearCachedState(ctx)
		return nil, err
	}
	if err := c.store.Save(state); err != nil {
		return nil, fmt.Errorf("persist authorization state: %w", err)
	}

	c.log.Debug(ctx, "status check ok",
		"username", state.Username, "local_expiry", c.LocalExpiry())
	return state, nil
}

// StartStatusMonitor launches the background re-validation loop using the
// client's configured interval and retry settings. A live token is
// required.
func (c *Client) StartStatusMonitor(ctx context.Context, onRevoked, onWarning func(string)) (*Monitor, error) {
	if c.AccessToken() == "" {
		return nil, common.ErrNotAuthenticated
	}
	m := NewMonitor(c, MonitorConfig{
		Interval:    c.statusInterval,
		RetryDelay:  c.retryDelay,
		MaxFailures: c.maxFailures,
		OnRevoked:   onRevoked,
		OnWarning:   onWarning,
		Logger:      c.log,
	})
	m.Start(ctx)
	return m, nil
}

func (c *Client) do(req *http.Request, failMsg string) (*authResponse, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &NetworkError{Message: failMsg, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &NetworkError{Message: failMsg, Err: err}
	}

	var data authResponse
	if err := json.Unmarshal(body, &data); err != nil {
		text := strings.TrimSpace(string(body))
		if len(text) > 200 {
			text = text[:200]
		}
		return nil, &ProtocolError{
			StatusCode: resp.StatusCode,
			Message:    msgInvalidResponse + ": " + text,
		}
	}

	if resp.StatusCode >= 400 {
		msg := data.errorMessage(resp.StatusCode)
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, &RevokedError{Message: msg}
		}
		return nil, &ProtocolError{StatusCode: resp.StatusCode, Message: msg}
	}
	return &data, nil
}

func (c *Client) stateFromLoginResponse(username string, data *authResponse) (*models.AuthState, error) {
	if data.AccessToken == "" || data.ExpiresAt.IsZero() {
		return nil, &ProtocolError{Message: msgLoginMissingFields}
	}

	state := &models.AuthState{
		Username:      username,
		AccessToken:   data.AccessToken,
		ExpiresAt:     data.ExpiresAt.Time,
		AccountStatus: data.AccountStatus,
		ServerTime:    data.ServerTime.Time,
		Message:       data.Message,
	}
	if state.AccountStatus == "" {
		state.AccountStatus = models.StatusActive
	}
	if !state.Active() {
		return nil, &RevokedError{Message: firstNonEmpty(data.Message, msgAccountDisabled)}
	}
	return state, nil
}

// stateFromStatusResponse tolerates a partial response by falling back to
// the previous token and expiry, but the active check is never relaxed.
func (c *Client) stateFromStatusResponse(prev *models.AuthState, data *authResponse) (*models.AuthState, error) {
	token := firstNonEmpty(data.AccessToken, prev.AccessToken)

	expiresAt := data.ExpiresAt.Time
	if expiresAt.IsZero() && token != prev.AccessToken {
		// A rotated token without a restated expiry carries its own
		// deadline in the exp claim; the previous expiry is stale.
		expiresAt, _ = tokenExpiry(token)
	}
	if expiresAt.IsZero() {
		expiresAt = prev.ExpiresAt
	}
	if token == "" || expiresAt.IsZero() {
		return nil, &ProtocolError{Message: msgStatusMissingFields}
	}

	status := firstNonEmpty(data.AccountStatus, prev.AccountStatus, models.StatusActive)

	state := &models.AuthState{
		Username:      prev.Username,
		AccessToken:   token,
		ExpiresAt:     expiresAt,
		AccountStatus: status,
		ServerTime:    data.ServerTime.Time,
		Message:       data.Message,
	}
	if !state.Active() {
		return nil, &RevokedError{Message: firstNonEmpty(data.Message, msgAccountDisabled)}
	}
	return state, nil
}

// apply atomically replaces the current record and refreshes the clock
// offset when the response carried the server's notion of now.
func (c *Client) apply(state *models.AuthState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = state.Clone()
	if !state.ServerTime.IsZero() {
		c.offset = state.ServerTime.Sub(c.now())
	}
	c.localExpiry = state.ExpiresAt.Add(-c.offset)
}

func (c *Client) ensureNotExpired() error {
	c.mu.Lock()
	expiry := c.localExpiry
	c.mu.Unlock()

	if expiry.IsZero() || expiry.After(c.now()) {
		return nil
	}
	return &RevokedError{Message: msgExpired}
}

// tokenExpiry extracts the exp claim from a JWT access token without
// verifying the signature. Used when a status response rotates the token
// but omits expires_at; opaque tokens simply report no expiry.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
