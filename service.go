package jwtgen

import (
	"errors"
	"io"
	"log/slog"
	"time"
)

// ServiceConfig wires the collaborators of a Service.
type ServiceConfig struct {
	Profiles  ProfileResolver
	Templates TemplateStore
	Logger    *slog.Logger
	// Now overrides the clock used for iat. Defaults to time.Now.
	Now func() time.Time
}

// SignRequest carries per-call overrides. Empty fields fall back to the profile.
type SignRequest struct {
	Env             string
	Profile         string
	Subject         string
	Audience        string
	Issuer          string
	TTL             string
	Expiry          *int64
	IssuedAt        *int64
	ExtraClaims     ExtraClaims
	PayloadTemplate string
	KeyID           string
}

// Service runs the full pipeline: profile, claims, template, payload, keys, signature.
// It keeps no state between calls; key material is loaded fresh for every request.
type Service struct {
	profiles  ProfileResolver
	templates TemplateStore
	signer    RS256Signer
	logger    *slog.Logger
	now       func() time.Time
}

// NewService validates cfg and builds a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Profiles == nil {
		return nil, errors.New("profile resolver is required")
	}
	templates := cfg.Templates
	if templates == nil {
		templates = DirTemplateStore{Dir: DefaultTemplateDir}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		profiles:  cfg.Profiles,
		templates: templates,
		logger:    logger,
		now:       now,
	}, nil
}

// Sign resolves the request against its profile and returns the signed token.
func (s *Service) Sign(req SignRequest) (*SignResult, error) {
	profile, err := s.profiles.Resolve(req.Env, req.Profile)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With("env", profile.Env, "profile", profile.Profile)

	issuedAt := req.IssuedAt
	if issuedAt == nil {
		iat := s.now().Unix()
		issuedAt = &iat
	}
	std, err := BuildStandardClaims(StandardClaimsInput{
		Issuer:   firstNonEmpty(req.Issuer, profile.IssuerDefault),
		Subject:  req.Subject,
		Audience: firstNonEmpty(req.Audience, profile.AudienceDefault),
		TTL:      firstNonEmpty(req.TTL, profile.DefaultTTL),
		Expiry:   req.Expiry,
		IssuedAt: issuedAt,
	})
	if err != nil {
		return nil, err
	}

	templateName := firstNonEmpty(req.PayloadTemplate, profile.PayloadTemplate, defaultTemplate)
	tpl, err := s.templates.Load(templateName)
	if err != nil {
		return nil, err
	}

	payload, err := RenderPayload(tpl, std, req.ExtraClaims)
	if err != nil {
		return nil, err
	}

	keys, err := LoadKeyMaterial(profile.PublicCertPEM, profile.PrivateKeyPEM)
	if err != nil {
		return nil, err
	}

	kid := firstNonEmpty(req.KeyID, profile.KeyID)
	if kid == KeyIDThumbprint {
		if kid, err = keys.Thumbprint(); err != nil {
			return nil, err
		}
	}

	result, err := s.signer.Sign(payload, keys, kid)
	if err != nil {
		return nil, err
	}

	logger.Debug("signed token",
		"template", templateName,
		"kid", kid,
		"sub", std.Subject,
		"aud", std.Audience,
		"exp", std.Expiry,
		"extra_claims", len(req.ExtraClaims),
	)
	return result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
