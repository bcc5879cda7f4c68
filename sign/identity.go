package sign

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"time"

	"github.com/smarty/webapk/contracts"
	"golang.org/x/crypto/pkcs12"
)

// Identity is a private key and its certificate. It is never mutated after
// construction, so concurrent requests may share one instance freely.
type Identity struct {
	PrivateKey  *rsa.PrivateKey
	Certificate *x509.Certificate
}

func NewIdentity(key *rsa.PrivateKey, certificate *x509.Certificate) (*Identity, error) {
	public, ok := certificate.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, contracts.SigningError{Cause: errors.New("certificate public key is not RSA")}
	}
	if !public.Equal(&key.PublicKey) {
		return nil, contracts.SigningError{Cause: errors.New("certificate does not match private key")}
	}
	return &Identity{PrivateKey: key, Certificate: certificate}, nil
}

// LoadIdentity decodes a PKCS#12 keystore blob (the release identity arrives
// this way, password via environment-provided secrets).
func LoadIdentity(keystore []byte, password string) (*Identity, error) {
	key, certificate, err := pkcs12.Decode(keystore, password)
	if err != nil {
		return nil, contracts.SigningError{Cause: err}
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, contracts.SigningError{Cause: errors.New("keystore private key is not RSA")}
	}
	return NewIdentity(rsaKey, certificate)
}

// NewDebugIdentity generates the bundled-equivalent debug identity: a fresh
// RSA key under a long-lived self-signed certificate.
func NewDebugIdentity() (*Identity, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, contracts.SigningError{Cause: err}
	}
	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "WebAPK Debug", Organization: []string{"webapk"}},
		NotBefore:             time.Now().Add(-24 * time.Hour),
		NotAfter:              time.Now().AddDate(30, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, contracts.SigningError{Cause: err}
	}
	certificate, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, contracts.SigningError{Cause: err}
	}
	return NewIdentity(key, certificate)
}
