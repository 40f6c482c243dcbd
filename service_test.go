package jwtgen

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
)

func newTestService(t *testing.T, templates TemplateStore) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{
		Profiles:  mustParseConfig(t),
		Templates: templates,
		Now:       func() time.Time { return time.Unix(1_700_000_000, 0) },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func defaultTemplates() MapTemplateStore {
	return MapTemplateStore{
		"generic": {"role": "user"},
		"admin":   {"role": "admin", "scope": "all"},
	}
}

func verifiedPayload(t *testing.T, token string) map[string]any {
	t.Helper()
	keys := testKeys(t)
	raw, err := jws.Verify([]byte(token), jws.WithKey(jwa.RS256, &keys.key.PublicKey))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return out
}

func TestService_SignEndToEnd(t *testing.T) {
	svc := newTestService(t, defaultTemplates())

	result, err := svc.Sign(SignRequest{Env: "dev", Profile: "api", Subject: "user1"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	payload := verifiedPayload(t, result.Token)
	want := map[string]any{
		"iss":  "acme",
		"sub":  "user1",
		"aud":  "api",
		"role": "user",
		"iat":  json.Number("1700000000"),
		"exp":  json.Number("1700003600"),
	}
	if len(payload) != len(want) {
		t.Fatalf("payload = %#v, want %#v", payload, want)
	}
	for k, v := range want {
		if payload[k] != v {
			t.Fatalf("payload[%q] = %#v, want %#v", k, payload[k], v)
		}
	}
	if result.Payload["exp"].(int64)-result.Payload["iat"].(int64) != 3600 {
		t.Fatalf("exp-iat mismatch: %#v", result.Payload)
	}
	if _, ok := result.Header["kid"]; ok {
		t.Fatalf("unexpected kid: %#v", result.Header)
	}
}

func TestService_RequestOverrides(t *testing.T) {
	svc := newTestService(t, defaultTemplates())

	result, err := svc.Sign(SignRequest{
		Env:             "dev",
		Profile:         "api",
		Subject:         "user2",
		Audience:        "billing",
		Issuer:          "override-iss",
		TTL:             "2d",
		IssuedAt:        int64Ptr(500),
		ExtraClaims:     ExtraClaims{"role": "ops", "tenant": "t-9"},
		PayloadTemplate: "admin",
		KeyID:           "k-override",
	})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	p := result.Payload
	if p["iss"] != "override-iss" || p["aud"] != "billing" || p["sub"] != "user2" {
		t.Fatalf("standard claims not overridden: %#v", p)
	}
	if p["iat"] != int64(500) || p["exp"] != int64(500+2*86400) {
		t.Fatalf("iat/exp = %v/%v", p["iat"], p["exp"])
	}
	if p["role"] != "ops" || p["scope"] != "all" || p["tenant"] != "t-9" {
		t.Fatalf("template/extra merge wrong: %#v", p)
	}
	if result.Header["kid"] != "k-override" {
		t.Fatalf("kid = %v", result.Header["kid"])
	}

	exp := int64(900)
	result, err = svc.Sign(SignRequest{Env: "dev", Profile: "api", Subject: "u", IssuedAt: int64Ptr(100), Expiry: &exp})
	if err != nil {
		t.Fatalf("Sign with exp: %v", err)
	}
	if result.Payload["exp"] != int64(900) {
		t.Fatalf("explicit exp ignored: %v", result.Payload["exp"])
	}
}

func TestService_ProfileDefaults(t *testing.T) {
	svc := newTestService(t, defaultTemplates())

	result, err := svc.Sign(SignRequest{Env: "dev", Profile: "admin", Subject: "root"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if result.Payload["exp"].(int64)-result.Payload["iat"].(int64) != 15*60 {
		t.Fatalf("profile ttl not applied: %#v", result.Payload)
	}
	if result.Payload["role"] != "admin" || result.Payload["aud"] != "admin-api" {
		t.Fatalf("profile template/audience not applied: %#v", result.Payload)
	}

	keys := testKeys(t)
	km, err := LoadKeyMaterial(keys.certPEM, keys.pkcs8)
	if err != nil {
		t.Fatalf("LoadKeyMaterial: %v", err)
	}
	thumb, err := km.Thumbprint()
	if err != nil {
		t.Fatalf("Thumbprint: %v", err)
	}
	if result.Header["kid"] != thumb {
		t.Fatalf("kid = %v, want thumbprint %s", result.Header["kid"], thumb)
	}

	prod, err := svc.Sign(SignRequest{Env: "prod", Profile: "api", Subject: "svc"})
	if err != nil {
		t.Fatalf("Sign prod: %v", err)
	}
	if prod.Header["kid"] != "prod-key-1" || prod.Payload["iss"] != "acme-prod" {
		t.Fatalf("prod profile not applied: %#v %#v", prod.Header, prod.Payload)
	}
}

func TestService_ErrorsKeepCodes(t *testing.T) {
	svc := newTestService(t, defaultTemplates())

	tests := []struct {
		name string
		req  SignRequest
		code ErrorCode
	}{
		{"unknown env", SignRequest{Env: "qa", Profile: "api", Subject: "u"}, ErrCodeConfiguration},
		{"unknown profile", SignRequest{Env: "dev", Profile: "batch", Subject: "u"}, ErrCodeConfiguration},
		{"missing subject", SignRequest{Env: "dev", Profile: "api"}, ErrCodeClaim},
		{"bad ttl", SignRequest{Env: "dev", Profile: "api", Subject: "u", TTL: "5w"}, ErrCodeClaim},
		{"reserved extra", SignRequest{Env: "dev", Profile: "api", Subject: "u", ExtraClaims: ExtraClaims{"exp": int64(1)}}, ErrCodeClaim},
		{"unknown template", SignRequest{Env: "dev", Profile: "api", Subject: "u", PayloadTemplate: "nope"}, ErrCodeTemplate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Sign(tt.req)
			requireCode(t, err, tt.code)
		})
	}
}

func TestService_BadKeyMaterial(t *testing.T) {
	cfg := &Config{Environments: map[string]EnvironmentConfig{
		"dev": {IssuerDefault: "acme", Profiles: map[string]ProfileConfig{
			"api": {AudienceDefault: "api", Keys: KeyConfig{
				PublicCer:  strings.Repeat("A", 40),
				PrivatePEM: strings.Repeat("B", 40),
			}},
		}},
	}}
	svc, err := NewService(ServiceConfig{Profiles: cfg, Templates: defaultTemplates()})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	_, err = svc.Sign(SignRequest{Env: "dev", Profile: "api", Subject: "u"})
	e := requireCode(t, err, ErrCodeKeyMaterial)
	if strings.Contains(e.Error(), "AAAA") || strings.Contains(e.Error(), "BBBB") {
		t.Fatalf("error leaks key material: %v", e)
	}
}

func TestService_LogsWithoutSecrets(t *testing.T) {
	var buf bytes.Buffer
	svc, err := NewService(ServiceConfig{
		Profiles:  mustParseConfig(t),
		Templates: defaultTemplates(),
		Logger:    slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	result, err := svc.Sign(SignRequest{Env: "dev", Profile: "api", Subject: "user1"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"msg":"signed token"`) || !strings.Contains(out, `"profile":"api"`) {
		t.Fatalf("missing debug log: %s", out)
	}
	if strings.Contains(out, result.Token) || strings.Contains(out, "PRIVATE KEY") {
		t.Fatalf("log leaks token or key: %s", out)
	}
}

func TestNewService_RequiresProfiles(t *testing.T) {
	if _, err := NewService(ServiceConfig{}); err == nil {
		t.Fatal("expected error without profile resolver")
	}
}
