package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

// ErrAuthFailure is returned when no bearer token could be obtained.
var ErrAuthFailure = errors.New("token acquisition failed")

// tokenExpirySkew is subtracted from a cached token's expiry so it is never
// presented in its last minute of validity.
const tokenExpirySkew = time.Minute

// sharedRefreshTimeout bounds a cached-mode grant that no single caller owns.
const sharedRefreshTimeout = 30 * time.Second

// AccessToken is a bearer token for the Log Analytics API
type AccessToken struct {
	Value  string
	Expiry time.Time
}

// TokenProvider hands out bearer tokens
type TokenProvider interface {
	Token(ctx context.Context) (AccessToken, error)
}

// CredentialConfig describes an Azure AD app registration
type CredentialConfig struct {
	AuthorityURL string // e.g. https://login.microsoftonline.com
	TenantID     string
	ClientID     string
	ClientSecret string
	Scope        string
	// CacheTokens keeps a token until shortly before it expires. When false
	// every call performs a new grant.
	CacheTokens bool
}

// TokenURL returns the v2.0 token endpoint for the tenant.
func (c CredentialConfig) TokenURL() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimRight(c.AuthorityURL, "/"), c.TenantID)
}

// CredentialManager acquires tokens with the OAuth2 client-credentials grant
type CredentialManager struct {
	oauth      *clientcredentials.Config
	httpClient *http.Client
	cache      bool

	mu     sync.RWMutex
	cached AccessToken
	sf     singleflight.Group
}

// NewCredentialManager creates a manager that posts to the tenant's token
// endpoint with httpClient.
func NewCredentialManager(cfg CredentialConfig, httpClient *http.Client) *CredentialManager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CredentialManager{
		oauth: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL(),
			Scopes:       []string{cfg.Scope},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
		cache:      cfg.CacheTokens,
	}
}

// Token returns a bearer token. Failures are wrapped in ErrAuthFailure and
// never retried.
func (m *CredentialManager) Token(ctx context.Context) (AccessToken, error) {
	if !m.cache {
		return m.fetch(ctx)
	}

	if tok, ok := m.fromCache(); ok {
		return tok, nil
	}

	// The grant is detached from the first caller's cancellation; every
	// waiter gives up on its own context.
	ch := m.sf.DoChan("token", func() (interface{}, error) {
		if tok, ok := m.fromCache(); ok {
			return tok, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedRefreshTimeout)
		defer cancel()
		tok, err := m.fetch(fetchCtx)
		if err != nil {
			return AccessToken{}, err
		}
		if !tok.Expiry.IsZero() {
			m.mu.Lock()
			m.cached = tok
			m.mu.Unlock()
		}
		return tok, nil
	})

	select {
	case <-ctx.Done():
		return AccessToken{}, fmt.Errorf("%w: %w", ErrAuthFailure, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return AccessToken{}, res.Err
		}
		return res.Val.(AccessToken), nil
	}
}

func (m *CredentialManager) fromCache() (AccessToken, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cached.Value == "" || time.Now().Add(tokenExpirySkew).After(m.cached.Expiry) {
		return AccessToken{}, false
	}
	return m.cached, true
}

func (m *CredentialManager) fetch(ctx context.Context) (AccessToken, error) {
	start := time.Now()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)

	tok, err := m.oauth.Token(ctx)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			log.Warn().Int("status", re.Response.StatusCode).Msg("token endpoint rejected client credentials")
		}
		return AccessToken{}, fmt.Errorf("%w: %v", ErrAuthFailure, err)
	}
	if tok.AccessToken == "" {
		return AccessToken{}, fmt.Errorf("%w: empty access_token", ErrAuthFailure)
	}

	log.Debug().
		Dur("duration", time.Since(start)).
		Time("expiry", tok.Expiry).
		Msg("access token acquired")

	return AccessToken{Value: tok.AccessToken, Expiry: tok.Expiry}, nil
}
