package jwtgen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"strings"
	"time"

	"github.com/youmark/pkcs8"
)

const devKeyBits = 2048

// DevKeyPair holds a throwaway RSA key and a matching self-signed certificate,
// flattened to single-line PEM so it can be pasted into a profile.
type DevKeyPair struct {
	PublicCertPEM string `json:"public_cer"`
	PrivateKeyPEM string `json:"private_pem"`
}

// GenerateDevKeyPair creates a key pair for local development. The private key
// is unencrypted PKCS#8.
func GenerateDevKeyPair(commonName string, validity time.Duration) (*DevKeyPair, error) {
	if commonName == "" {
		commonName = "jwtgen.dev"
	}
	if validity <= 0 {
		return nil, newError(ErrCodeKeyMaterial, "certificate validity must be positive")
	}

	key, err := rsa.GenerateKey(rand.Reader, devKeyBits)
	if err != nil {
		return nil, wrapError(ErrCodeKeyMaterial, err, "generate RSA key")
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, wrapError(ErrCodeKeyMaterial, err, "generate serial")
	}
	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(validity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	certDER, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, wrapError(ErrCodeKeyMaterial, err, "create certificate")
	}
	keyDER, err := pkcs8.MarshalPrivateKey(key, nil, nil)
	if err != nil {
		return nil, wrapError(ErrCodeKeyMaterial, err, "encode private key")
	}

	return &DevKeyPair{
		PublicCertPEM: flattenPEM("CERTIFICATE", certDER),
		PrivateKeyPEM: flattenPEM("PRIVATE KEY", keyDER),
	}, nil
}

func flattenPEM(blockType string, der []byte) string {
	encoded := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	return strings.ReplaceAll(strings.TrimSpace(string(encoded)), "\n", "")
}
