package jwtgen

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Registered claim names resolved by BuildStandardClaims. Extra claims may not use them.
const (
	ClaimIssuer   = "iss"
	ClaimSubject  = "sub"
	ClaimAudience = "aud"
	ClaimIssuedAt = "iat"
	ClaimExpiry   = "exp"
)

var reservedClaims = map[string]string{
	ClaimIssuer:   "--iss",
	ClaimSubject:  "--sub",
	ClaimAudience: "--aud",
	ClaimIssuedAt: "--iat",
	ClaimExpiry:   "--exp or --ttl",
}

var (
	ttlPattern     = regexp.MustCompile(`(?i)^\s*(\d+)\s*([smhd])\s*$`)
	integerPattern = regexp.MustCompile(`^-?\d+$`)
)

var ttlUnits = map[string]int64{
	"s": 1,
	"m": 60,
	"h": 60 * 60,
	"d": 24 * 60 * 60,
}

var errTrailingData = errors.New("unexpected data after JSON value")

// nowFunc is the clock used when no issued-at value is supplied.
var nowFunc = time.Now

// StandardClaimsInput carries the values the standard claims are resolved from.
// Expiry wins over TTL when both are set.
type StandardClaimsInput struct {
	Issuer   string
	Subject  string
	Audience string
	TTL      string
	Expiry   *int64
	IssuedAt *int64
}

// StandardClaims is the resolved registered claim set. Times are Unix seconds.
type StandardClaims struct {
	Issuer   string
	Subject  string
	Audience string
	IssuedAt int64
	Expiry   int64
}

// Map returns the claims keyed by their JWT names.
func (c StandardClaims) Map() map[string]any {
	return map[string]any{
		ClaimIssuer:   c.Issuer,
		ClaimSubject:  c.Subject,
		ClaimAudience: c.Audience,
		ClaimIssuedAt: c.IssuedAt,
		ClaimExpiry:   c.Expiry,
	}
}

// ExtraClaims are caller supplied claims layered over the template.
type ExtraClaims map[string]any

// BuildStandardClaims validates the input and computes iat and exp.
func BuildStandardClaims(in StandardClaimsInput) (StandardClaims, error) {
	switch {
	case in.Issuer == "":
		return StandardClaims{}, newError(ErrCodeClaim, "iss must not be empty")
	case in.Subject == "":
		return StandardClaims{}, newError(ErrCodeClaim, "sub must not be empty")
	case in.Audience == "":
		return StandardClaims{}, newError(ErrCodeClaim, "aud must not be empty")
	}

	iat := nowFunc().Unix()
	if in.IssuedAt != nil {
		iat = *in.IssuedAt
	}

	var exp int64
	if in.Expiry != nil {
		exp = *in.Expiry
		if exp <= iat {
			return StandardClaims{}, newError(ErrCodeClaim, "exp (%d) must be greater than iat (%d)", exp, iat)
		}
	} else {
		if strings.TrimSpace(in.TTL) == "" {
			return StandardClaims{}, newError(ErrCodeClaim, "ttl must not be empty when exp is not set")
		}
		seconds, err := ParseTTL(in.TTL)
		if err != nil {
			return StandardClaims{}, err
		}
		if iat > math.MaxInt64-seconds {
			return StandardClaims{}, newError(ErrCodeClaim, "ttl %q overflows exp", in.TTL)
		}
		exp = iat + seconds
	}

	return StandardClaims{
		Issuer:   in.Issuer,
		Subject:  in.Subject,
		Audience: in.Audience,
		IssuedAt: iat,
		Expiry:   exp,
	}, nil
}

// ParseTTL converts a relative lifetime such as "30m", "1h" or "7d" to seconds.
func ParseTTL(ttl string) (int64, error) {
	m := ttlPattern.FindStringSubmatch(ttl)
	if m == nil {
		return 0, newError(ErrCodeClaim, "invalid ttl %q: expected formats like 15s, 30m, 1h, 7d", ttl)
	}
	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, wrapError(ErrCodeClaim, err, "invalid ttl %q", ttl)
	}
	if value <= 0 {
		return 0, newError(ErrCodeClaim, "invalid ttl %q: value must be greater than 0", ttl)
	}
	multiplier := ttlUnits[strings.ToLower(m[2])]
	if value > math.MaxInt64/multiplier {
		return 0, newError(ErrCodeClaim, "invalid ttl %q: value too large", ttl)
	}
	return value * multiplier, nil
}

// ParseClaimKV parses a key=value token, inferring the value type:
// true/false become booleans, integers become int64, values starting with
// '{' or '[' are decoded as JSON, anything else stays a string.
func ParseClaimKV(kv string) (string, any, error) {
	rawKey, rawValue, ok := strings.Cut(kv, "=")
	if !ok {
		return "", nil, newError(ErrCodeClaim, "invalid claim %q: use key=value", kv)
	}
	key := strings.TrimSpace(rawKey)
	value := strings.TrimSpace(rawValue)
	if key == "" {
		return "", nil, newError(ErrCodeClaim, "invalid claim %q: empty key", kv)
	}

	switch strings.ToLower(value) {
	case "true":
		return key, true, nil
	case "false":
		return key, false, nil
	}

	if integerPattern.MatchString(value) {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return key, n, nil
		}
		// Out of int64 range; keep the exact digits as a JSON number.
		return key, json.Number(value), nil
	}

	if strings.HasPrefix(value, "{") || strings.HasPrefix(value, "[") {
		decoded, err := decodeJSON([]byte(value))
		if err != nil {
			return "", nil, wrapError(ErrCodeClaim, err, "claim %q has invalid JSON", key)
		}
		return key, decoded, nil
	}

	return key, value, nil
}

// ParseClaims parses repeated key=value tokens and rejects duplicate keys.
func ParseClaims(kvs []string) (ExtraClaims, error) {
	claims := make(ExtraClaims, len(kvs))
	for _, kv := range kvs {
		key, value, err := ParseClaimKV(kv)
		if err != nil {
			return nil, err
		}
		if _, exists := claims[key]; exists {
			return nil, newError(ErrCodeClaim, "duplicate claim %q", key)
		}
		claims[key] = value
	}
	return claims, nil
}

// decodeJSON decodes a single JSON value keeping numbers as json.Number.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return v, nil
}
