package jwtgen

import (
	"crypto"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/youmark/pkcs8"
)

const (
	pemTypeCertificate         = "CERTIFICATE"
	pemTypePrivateKey          = "PRIVATE KEY"
	pemTypeRSAPrivateKey       = "RSA PRIVATE KEY"
	pemTypeECPrivateKey        = "EC PRIVATE KEY"
	pemTypeEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
)

var (
	errNoPEMBlock        = errors.New("no PEM block found")
	errEncryptedKey      = errors.New("encrypted private keys are not supported")
	errUnsupportedPEMKey = errors.New("unsupported PEM block type")
)

// KeyMaterial holds the parsed key pair used for a single signing call.
// It is built from configuration on every request and never cached.
type KeyMaterial struct {
	Certificate *x509.Certificate
	PublicKey   crypto.PublicKey
	PrivateKey  crypto.PrivateKey
}

// LoadKeyMaterial normalizes and parses an X.509 certificate and an
// unencrypted private key. The two are not checked for being a matching pair.
func LoadKeyMaterial(publicCertPEM, privateKeyPEM string) (*KeyMaterial, error) {
	cert, err := parseCertificate(publicCertPEM)
	if err != nil {
		return nil, wrapError(ErrCodeKeyMaterial, err, "load public certificate")
	}

	key, err := parsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, wrapError(ErrCodeKeyMaterial, err, "load private key")
	}

	return &KeyMaterial{
		Certificate: cert,
		PublicKey:   cert.PublicKey,
		PrivateKey:  key,
	}, nil
}

// Thumbprint returns the base64url RFC 7638 SHA-256 thumbprint of the
// certificate public key, suitable as a key identifier.
func (k *KeyMaterial) Thumbprint() (string, error) {
	if k == nil || k.PublicKey == nil {
		return "", newError(ErrCodeKeyMaterial, "thumbprint: no public key loaded")
	}
	key, err := jwk.FromRaw(k.PublicKey)
	if err != nil {
		return "", wrapError(ErrCodeKeyMaterial, err, "thumbprint: convert public key")
	}
	sum, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", wrapError(ErrCodeKeyMaterial, err, "thumbprint: compute")
	}
	return base64.RawURLEncoding.EncodeToString(sum), nil
}

func parseCertificate(text string) (*x509.Certificate, error) {
	data, err := NormalizePEM(text)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errNoPEMBlock
	}
	if block.Type != pemTypeCertificate {
		return nil, fmt.Errorf("expected %s block, got %q", pemTypeCertificate, block.Type)
	}
	return x509.ParseCertificate(block.Bytes)
}

func parsePrivateKey(text string) (crypto.PrivateKey, error) {
	data, err := NormalizePEM(text)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errNoPEMBlock
	}
	if _, ok := block.Headers["Proc-Type"]; ok {
		return nil, errEncryptedKey
	}

	switch block.Type {
	case pemTypeEncryptedPrivateKey:
		return nil, errEncryptedKey
	case pemTypePrivateKey:
		// Without a password pkcs8 only accepts unencrypted PrivateKeyInfo.
		key, err := pkcs8.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		return key, nil
	case pemTypeRSAPrivateKey:
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case pemTypeECPrivateKey:
		return x509.ParseECPrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("%w %q", errUnsupportedPEMKey, block.Type)
	}
}
