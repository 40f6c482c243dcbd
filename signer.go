package jwtgen

import (
	"crypto/rsa"
	"encoding/json"
	"errors"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
)

const (
	headerType      = "typ"
	headerAlgorithm = "alg"
	headerKeyID     = "kid"
)

var errNotRSAKey = errors.New("RS256 requires an RSA private key")

// SignResult is the compact token together with the exact header and payload
// it was produced from.
type SignResult struct {
	Token   string         `json:"token"`
	Header  map[string]any `json:"header"`
	Payload map[string]any `json:"payload"`
}

// RS256Signer produces RS256 (RSASSA-PKCS1-v1_5 with SHA-256) compact JWTs.
type RS256Signer struct{}

// Sign serializes the payload, signs it with the private key in keys and
// returns the token. kid is added to the header only when non-empty.
func (RS256Signer) Sign(payload map[string]any, keys *KeyMaterial, kid string) (*SignResult, error) {
	if len(payload) == 0 {
		return nil, newError(ErrCodeSigning, "payload is empty or invalid")
	}
	if keys == nil || keys.PrivateKey == nil {
		return nil, newError(ErrCodeSigning, "no private key loaded")
	}
	priv, ok := keys.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, wrapError(ErrCodeSigning, errNotRSAKey, "sign RS256 JWT")
	}

	header := map[string]any{
		headerType:      "JWT",
		headerAlgorithm: jwa.RS256.String(),
	}
	if kid != "" {
		header[headerKeyID] = kid
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, wrapError(ErrCodeSigning, err, "encode payload")
	}

	protected := jws.NewHeaders()
	if err := protected.Set(jws.TypeKey, "JWT"); err != nil {
		return nil, wrapError(ErrCodeSigning, err, "build header")
	}
	if kid != "" {
		if err := protected.Set(jws.KeyIDKey, kid); err != nil {
			return nil, wrapError(ErrCodeSigning, err, "build header")
		}
	}

	signed, err := jws.Sign(body, jws.WithKey(jwa.RS256, priv, jws.WithProtectedHeaders(protected)))
	if err != nil {
		return nil, wrapError(ErrCodeSigning, err, "sign RS256 JWT")
	}

	return &SignResult{
		Token:   string(signed),
		Header:  header,
		Payload: payload,
	}, nil
}
