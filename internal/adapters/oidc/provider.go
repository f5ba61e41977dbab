// Package oidc adapts an OpenID Connect identity provider to the GameUp login flow.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
	"github.com/gameup/gameup-web/internal/ports"
)

// DefaultGroupsClaim is the claim holding group membership when none is configured.
const DefaultGroupsClaim = "groups"

// Provider implements ports.AuthProvider against an OIDC issuer.
type Provider struct {
	config      *oauth2.Config
	httpClient  *http.Client
	groupsClaim string
	prompt      string

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	// IssuerURL may be the issuer itself or its discovery document URL.
	IssuerURL   string
	GroupsClaim string
	Prompt      string
	HTTPClient  *http.Client
}

// DiscoveryDocument represents the subset of the OIDC discovery document we rely on.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider discovers the issuer and builds a provider.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx = gooidc.ClientContext(ctx, httpClient)
	op, err := gooidc.NewProvider(ctx, issuerFromURL(config.IssuerURL))
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	groupsClaim := config.GroupsClaim
	if groupsClaim == "" {
		groupsClaim = DefaultGroupsClaim
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       strings.Fields(config.Scope),
			Endpoint:     op.Endpoint(),
		},
		httpClient:   httpClient,
		groupsClaim:  groupsClaim,
		prompt:       config.Prompt,
		oidcProvider: op,
		verifier:     op.Verifier(&gooidc.Config{ClientID: config.ClientID}),
	}, nil
}

func validateConfig(c ProviderConfig) error {
	switch {
	case c.ClientID == "":
		return errors.New("client ID is required")
	case c.ClientSecret == "":
		return errors.New("client secret is required")
	case c.RedirectURL == "":
		return errors.New("redirect URL is required")
	case c.IssuerURL == "":
		return errors.New("issuer URL is required")
	}
	return nil
}

func issuerFromURL(u string) string {
	u = strings.TrimSuffix(u, "/")
	u = strings.TrimSuffix(u, "/.well-known/openid-configuration")
	return u
}

func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	opts := []oauth2.AuthCodeOption{gooidc.Nonce(nonce)}
	if p.prompt != "" {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", p.prompt))
	}
	return p.config.AuthCodeURL(state, opts...), state, nonce, nil
}

func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Claims, error) {
	if in.Code == "" {
		return domainauth.Claims{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return domainauth.Claims{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return domainauth.Claims{}, errors.New("nonce is required")
	}

	ctx = gooidc.ClientContext(ctx, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Claims{}, fmt.Errorf("exchange code for token: %w", err)
	}

	raw, err := p.verifiedClaims(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.Claims{}, err
	}

	if needsUserInfo(raw) {
		if err := p.mergeUserInfo(ctx, token, raw); err != nil {
			return domainauth.Claims{}, fmt.Errorf("get user info: %w", err)
		}
	}

	claims := claimsFromRaw(raw, p.groupsClaim)
	claims.ExpiresAt = time.Now().Add(time.Hour)
	if !token.Expiry.IsZero() {
		claims.ExpiresAt = token.Expiry
	}
	return claims, nil
}

func (p *Provider) verifiedClaims(ctx context.Context, tok *oauth2.Token, expectedNonce string) (map[string]any, error) {
	raw := map[string]any{}
	if !slices.Contains(p.config.Scopes, gooidc.ScopeOpenID) {
		return raw, nil
	}
	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		return nil, fmt.Errorf("extract id_token: %w", err)
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}
	if idTok.Nonce != expectedNonce {
		return nil, errors.New("invalid nonce")
	}
	if err := idTok.Claims(&raw); err != nil {
		return nil, fmt.Errorf("parse id_token claims: %w", err)
	}
	return raw, nil
}

func (p *Provider) mergeUserInfo(ctx context.Context, tok *oauth2.Token, raw map[string]any) error {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return fmt.Errorf("fetch user info: %w", err)
	}
	extra := map[string]any{}
	if err := ui.Claims(&extra); err != nil {
		return fmt.Errorf("decode user info: %w", err)
	}
	mergeMissing(raw, extra)
	return nil
}

// mergeMissing copies keys from src that dst does not carry yet.
func mergeMissing(dst, src map[string]any) {
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
}

func needsUserInfo(raw map[string]any) bool {
	return stringClaim(raw, "sub") == "" || stringClaim(raw, "email") == ""
}

// claimsFromRaw maps a decoded claim set into domain claims.
func claimsFromRaw(raw map[string]any, groupsClaim string) domainauth.Claims {
	name := stringClaim(raw, "name")
	if name == "" {
		name = strings.TrimSpace(stringClaim(raw, "given_name") + " " + stringClaim(raw, "family_name"))
	}
	return domainauth.Claims{
		UserID: firstNonEmpty(stringClaim(raw, "preferred_username"), stringClaim(raw, "sub")),
		Name:   name,
		Email:  stringClaim(raw, "email"),
		Groups: stringsClaim(raw, groupsClaim),
		Raw:    raw,
	}
}

func stringClaim(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}

// stringsClaim accepts either a JSON array of strings or a single space-separated string.
func stringsClaim(raw map[string]any, key string) []string {
	switch v := raw[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return append([]string(nil), v...)
	case string:
		return strings.Fields(v)
	default:
		return nil
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
