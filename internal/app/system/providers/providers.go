// Package providers wraps the external OAuth2 sign-in providers.
//
// A Provider only returns identity facts. Linking identities to users and
// creating sessions is left to the caller.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/setliststudio/internal/domain/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

// ErrUnknownProvider is returned by Registry.Get for names that are not
// registered.
var ErrUnknownProvider = errors.New("providers: unknown provider")

// ErrIncompleteProfile is returned when the provider omits the subject.
var ErrIncompleteProfile = errors.New("providers: profile missing subject")

// Identity is a normalized external account.
type Identity struct {
	Provider string
	Subject  string // provider-scoped user id
	Email    string
	Name     string
}

// Provider is one configured OAuth2 sign-in provider.
type Provider interface {
	Name() string
	Label() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// profileDecoder turns a userinfo response body into an Identity.
type profileDecoder func(body []byte) (*Identity, error)

// oauthProvider is the shared implementation behind every provider.
type oauthProvider struct {
	name        string
	label       string
	config      *oauth2.Config
	userInfoURL string
	decode      profileDecoder
	timeout     time.Duration
}

func (p *oauthProvider) Name() string  { return p.name }
func (p *oauthProvider) Label() string { return p.label }

func (p *oauthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the code for a token and loads the account profile.
func (p *oauthProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%s: missing authorization code", p.name)
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s token exchange failed: %w", p.name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s userinfo request failed: %w", p.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s userinfo read failed: %w", p.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s userinfo returned status %d", p.name, resp.StatusCode)
	}

	id, err := p.decode(body)
	if err != nil {
		return nil, fmt.Errorf("%s userinfo decode failed: %w", p.name, err)
	}
	if id.Subject == "" {
		return nil, ErrIncompleteProfile
	}
	id.Provider = p.name
	id.Email = strings.ToLower(strings.TrimSpace(id.Email))
	return id, nil
}

// Credentials configure one provider. A provider with an empty client id or
// secret is not registered.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Tenant       string // microsoft only, defaults to "common"
}

func (c Credentials) configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Config lists the credentials for every supported provider.
type Config struct {
	BaseURL   string
	Google    Credentials
	Microsoft Credentials
	Facebook  Credentials
	Timeout   time.Duration
}

// Option overrides endpoints, mainly for tests.
type Option func(*oauthProvider)

// WithEndpoint replaces the OAuth2 endpoint and userinfo URL.
func WithEndpoint(ep oauth2.Endpoint, userInfoURL string) Option {
	return func(p *oauthProvider) {
		p.config.Endpoint = ep
		p.userInfoURL = userInfoURL
	}
}

func callbackURL(baseURL, name string) string {
	return strings.TrimRight(baseURL, "/") + "/auth/" + name + "/callback"
}

func build(p *oauthProvider, opts []Option) Provider {
	if p.timeout <= 0 {
		p.timeout = 10 * time.Second
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// NewGoogle builds the Google provider.
func NewGoogle(baseURL string, c Credentials, timeout time.Duration, opts ...Option) Provider {
	return build(&oauthProvider{
		name:  models.ProviderGoogle,
		label: models.AuthProviderLabel(models.ProviderGoogle),
		config: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  callbackURL(baseURL, models.ProviderGoogle),
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		decode:      decodeGoogle,
		timeout:     timeout,
	}, opts)
}

// NewMicrosoft builds the Microsoft provider.
func NewMicrosoft(baseURL string, c Credentials, timeout time.Duration, opts ...Option) Provider {
	tenant := c.Tenant
	if tenant == "" {
		tenant = "common"
	}
	return build(&oauthProvider{
		name:  models.ProviderMicrosoft,
		label: models.AuthProviderLabel(models.ProviderMicrosoft),
		config: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  callbackURL(baseURL, models.ProviderMicrosoft),
			Scopes:       []string{"openid", "email", "profile", "User.Read"},
			Endpoint:     microsoft.AzureADEndpoint(tenant),
		},
		userInfoURL: "https://graph.microsoft.com/v1.0/me",
		decode:      decodeMicrosoft,
		timeout:     timeout,
	}, opts)
}

// NewFacebook builds the Facebook provider.
func NewFacebook(baseURL string, c Credentials, timeout time.Duration, opts ...Option) Provider {
	return build(&oauthProvider{
		name:  models.ProviderFacebook,
		label: models.AuthProviderLabel(models.ProviderFacebook),
		config: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  callbackURL(baseURL, models.ProviderFacebook),
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     facebook.Endpoint,
		},
		userInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		decode:      decodeFacebook,
		timeout:     timeout,
	}, opts)
}

func decodeGoogle(body []byte) (*Identity, error) {
	var v struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return &Identity{Subject: v.ID, Email: v.Email, Name: v.Name}, nil
}

func decodeMicrosoft(body []byte) (*Identity, error) {
	var v struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	email := v.Mail
	if email == "" && strings.Contains(v.UserPrincipalName, "@") {
		email = v.UserPrincipalName
	}
	return &Identity{Subject: v.ID, Email: email, Name: v.DisplayName}, nil
}

func decodeFacebook(body []byte) (*Identity, error) {
	var v struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return &Identity{Subject: v.ID, Email: v.Email, Name: v.Name}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Registry                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Registry holds the configured providers by name.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry registers the given providers by name.
func NewRegistry(list ...Provider) *Registry {
	m := make(map[string]Provider, len(list))
	for _, p := range list {
		if p != nil {
			m[p.Name()] = p
		}
	}
	return &Registry{providers: m}
}

// FromConfig registers every provider whose credentials are set.
func FromConfig(cfg Config) *Registry {
	var list []Provider
	if cfg.Google.configured() {
		list = append(list, NewGoogle(cfg.BaseURL, cfg.Google, cfg.Timeout))
	}
	if cfg.Microsoft.configured() {
		list = append(list, NewMicrosoft(cfg.BaseURL, cfg.Microsoft, cfg.Timeout))
	}
	if cfg.Facebook.configured() {
		list = append(list, NewFacebook(cfg.BaseURL, cfg.Facebook, cfg.Timeout))
	}
	return NewRegistry(list...)
}

// Get returns the named provider. Lookup is case-insensitive.
func (r *Registry) Get(name string) (Provider, error) {
	if r != nil {
		if p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]; ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
