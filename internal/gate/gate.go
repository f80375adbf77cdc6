// Package gate is the entry point the protected tool calls before doing
// any site automation: it ensures a valid authorization record exists,
// going to the network only when the local cache cannot vouch for one.
package gate

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/digitalchief/clientauth/internal/authclient"
	"github.com/digitalchief/clientauth/internal/common"
	"github.com/digitalchief/clientauth/internal/logging"
	"github.com/digitalchief/clientauth/internal/models"
)

// Environment variables recognized for unattended runs.
const (
	EnvUsername = "CLIENT_AUTH_USERNAME"
	EnvPassword = "CLIENT_AUTH_PASSWORD"
)

// CredentialPrompter collects credentials interactively. Implementations
// live in the CLI; headless deployments pass nil and rely on env vars.
type CredentialPrompter interface {
	PromptUsername(defaultUsername string) (string, error)
	PromptPassword() ([]byte, error)
}

// Gate coordinates the run-level authorization lifecycle. The first
// successful EnsureAuthorized is memoized; later calls in the same run
// return the same record without touching disk or network.
type Gate struct {
	client *authclient.Client
	prompt CredentialPrompter
	log    logging.Logger

	// lookupEnv is a test seam for os.LookupEnv.
	lookupEnv func(string) (string, bool)

	mu    sync.Mutex
	state *models.AuthState
}

func New(client *authclient.Client, prompt CredentialPrompter, log logging.Logger) *Gate {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Gate{
		client:    client,
		prompt:    prompt,
		log:       log,
		lookupEnv: os.LookupEnv,
	}
}

// EnsureAuthorized returns a valid authorization record or an error that
// should abort the run. Order: memoized result, cached state file, then
// a fresh login with env-supplied or prompted credentials.
//
// A CLIENT_AUTH_USERNAME that differs from the cached record's username
// discards the cache: the operator explicitly asked for another account.
func (g *Gate) EnsureAuthorized(ctx context.Context) (*models.AuthState, error) {
	g.mu.Lock()
	if g.state != nil {
		state := g.state.Clone()
		g.mu.Unlock()
		return state, nil
	}
	g.mu.Unlock()

	envUser := strings.TrimSpace(g.env(EnvUsername))

	cached := g.client.LoadCachedState(ctx)
	if cached != nil && envUser != "" && envUser != cached.Username {
		g.log.Info(ctx, "cached authorization belongs to another account, discarding",
			"cached", cached.Username, "requested", envUser)
		g.client.ClearCachedState(ctx)
		cached = nil
	}
	if cached != nil {
		g.log.Info(ctx, "authorization valid",
			"username", cached.Username, "local_expiry", g.client.LocalExpiry())
		g.remember(cached)
		return cached, nil
	}

	username, password, err := g.collectCredentials(envUser)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(password)

	state, err := g.client.Login(ctx, username, string(password))
	if err != nil {
		return nil, err
	}

	g.log.Info(ctx, "authorization verified",
		"username", state.Username, "local_expiry", g.client.LocalExpiry())
	g.remember(state)
	return state, nil
}

func (g *Gate) remember(state *models.AuthState) {
	g.mu.Lock()
	g.state = state.Clone()
	g.mu.Unlock()
}

func (g *Gate) env(key string) string {
	v, _ := g.lookupEnv(key)
	return v
}

func (g *Gate) collectCredentials(envUser string) (string, []byte, error) {
	username := envUser
	if username == "" && g.prompt != nil {
		entered, err := g.prompt.PromptUsername("")
		if err != nil {
			return "", nil, err
		}
		username = strings.TrimSpace(entered)
	}
	if username == "" {
		return "", nil, common.ErrMissingUsername
	}

	var password []byte
	if v := strings.TrimSpace(g.env(EnvPassword)); v != "" {
		password = []byte(v)
	} else if g.prompt != nil {
		entered, err := g.prompt.PromptPassword()
		if err != nil {
			return "", nil, err
		}
		password = []byte(strings.TrimSpace(string(entered)))
	}
	if len(password) == 0 {
		return "", nil, common.ErrMissingPassword
	}

	return username, password, nil
}
