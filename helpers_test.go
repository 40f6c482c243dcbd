package jwtgen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"
)

type testKeyPair struct {
	key     *rsa.PrivateKey
	certPEM string
	pkcs1   string
	pkcs8   string
}

var (
	fixtureOnce sync.Once
	fixture     testKeyPair
	fixtureErr  error
)

// testKeys returns a process-wide RSA key with a self-signed certificate.
func testKeys(t *testing.T) testKeyPair {
	t.Helper()
	fixtureOnce.Do(func() {
		fixture, fixtureErr = newTestKeyPair()
	})
	if fixtureErr != nil {
		t.Fatalf("generate fixture: %v", fixtureErr)
	}
	return fixture
}

func newTestKeyPair() (testKeyPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return testKeyPair{}, err
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "jwtgen-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return testKeyPair{}, err
	}
	pkcs8DER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return testKeyPair{}, err
	}
	return testKeyPair{
		key:     key,
		certPEM: encodePEM("CERTIFICATE", der),
		pkcs1:   encodePEM("RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key)),
		pkcs8:   encodePEM("PRIVATE KEY", pkcs8DER),
	}, nil
}

func encodePEM(blockType string, der []byte) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}))
}

// oneLine flattens PEM the way it is stored in YAML scalars or env vars.
func oneLine(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "")
}

func int64Ptr(v int64) *int64 {
	return &v
}

func requireCode(t *testing.T, err error, code ErrorCode) *Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if e.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, e.Code, err)
	}
	return e
}
