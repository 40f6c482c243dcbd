package jwtgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Minter signs a fully described request. *Service satisfies it.
type Minter interface {
	Sign(req SignRequest) (*SignResult, error)
}

// ProviderConfig defines how tokens should be minted by default.
type ProviderConfig struct {
	Minter   Minter
	Defaults SignRequest
}

// Provider hands out bearer tokens for outgoing calls. It caches one token
// source per request shape; a source reuses its last token until it nears
// expiry and then mints a new one through the full signing pipeline.
type Provider struct {
	mu       sync.RWMutex
	minter   Minter
	entries  map[string]*tokenSourceEntry
	defaults SignRequest
}

type tokenSourceEntry struct {
	source oauth2.TokenSource
}

// TokenOption customizes the request for a single Token call.
type TokenOption func(*SignRequest)

// WithAudience overrides the audience claim.
func WithAudience(aud string) TokenOption {
	return func(r *SignRequest) {
		r.Audience = aud
	}
}

// WithTTL overrides the relative lifetime of minted tokens.
func WithTTL(ttl string) TokenOption {
	return func(r *SignRequest) {
		r.TTL = ttl
	}
}

// WithClaims adds extra claims on top of the defaults.
func WithClaims(claims ExtraClaims) TokenOption {
	return func(r *SignRequest) {
		merged := make(ExtraClaims, len(r.ExtraClaims)+len(claims))
		maps.Copy(merged, r.ExtraClaims)
		maps.Copy(merged, claims)
		r.ExtraClaims = merged
	}
}

// WithTemplate selects the payload template.
func WithTemplate(name string) TokenOption {
	return func(r *SignRequest) {
		r.PayloadTemplate = name
	}
}

// WithKeyID sets the kid header.
func WithKeyID(kid string) TokenOption {
	return func(r *SignRequest) {
		r.KeyID = kid
	}
}

// NewProvider constructs a Provider using the supplied defaults.
func NewProvider(cfg ProviderConfig) *Provider {
	return &Provider{
		minter:   cfg.Minter,
		entries:  make(map[string]*tokenSourceEntry),
		defaults: cloneRequest(cfg.Defaults),
	}
}

// Token returns a bearer token for subject.
func (p *Provider) Token(ctx context.Context, subject string, opts ...TokenOption) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject is required")
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}

	req := cloneRequest(p.defaults)
	req.Subject = subject
	for _, opt := range TokenOptionsFromContext(ctx) {
		opt(&req)
	}
	for _, opt := range opts {
		opt(&req)
	}

	tok, err := p.TokenSource(req).Token()
	if err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("empty access token returned")
	}
	return tok.AccessToken, nil
}

// TokenSource returns the cached source for req, creating it on first use.
func (p *Provider) TokenSource(req SignRequest) oauth2.TokenSource {
	key := requestKey(req)

	p.mu.RLock()
	entry, ok := p.entries[key]
	p.mu.RUnlock()
	if ok {
		return entry.source
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if entry, ok = p.entries[key]; ok {
		return entry.source
	}

	src := &mintingTokenSource{minter: p.minter, req: cloneRequest(req)}
	entry = &tokenSourceEntry{source: oauth2.ReuseTokenSource(nil, src)}
	p.entries[key] = entry
	return entry.source
}

type mintingTokenSource struct {
	minter Minter
	req    SignRequest
}

func (s *mintingTokenSource) Token() (*oauth2.Token, error) {
	if s.minter == nil {
		return nil, errors.New("no minter configured")
	}
	result, err := s.minter.Sign(s.req)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{
		AccessToken: result.Token,
		TokenType:   "Bearer",
	}
	if exp, ok := unixClaim(result.Payload[ClaimExpiry]); ok {
		tok.Expiry = time.Unix(exp, 0)
	}
	return tok, nil
}

func unixClaim(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		return int64(n), true
	}
	return 0, false
}

func requestKey(req SignRequest) string {
	// json.Marshal sorts map keys, giving a stable encoding of the extra claims.
	claims, err := json.Marshal(req.ExtraClaims)
	if err != nil {
		// Unencodable values (NaN, channels) still need distinct keys; fmt sorts map keys too.
		claims = []byte(fmt.Sprintf("%#v", req.ExtraClaims))
	}
	parts := []string{
		req.Env, req.Profile, req.Subject, req.Audience, req.Issuer, req.TTL,
		optionalInt(req.Expiry), optionalInt(req.IssuedAt),
		req.PayloadTemplate, req.KeyID, string(claims),
	}
	return strings.Join(parts, "\x00")
}

func optionalInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func cloneRequest(in SignRequest) SignRequest {
	out := in
	if in.ExtraClaims != nil {
		out.ExtraClaims = maps.Clone(in.ExtraClaims)
	}
	return out
}
