package ca

// token.go builds the authorization token the CA requires on registration
// calls: the caller's enrollment certificate plus an ECDSA signature binding
// the certificate to the request method, URI and body.

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	casn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// authToken returns the token for a signed CA request:
// b64(cert) + "." + b64(sig), where sig covers
// method + "." + b64(uri) + "." + b64(body) + "." + b64(cert).
func authToken(certPEM, keyPEM []byte, method, uri string, body []byte) (string, error) {
	key, err := parseECDSAKey(keyPEM)
	if err != nil {
		return "", err
	}

	b64 := base64.StdEncoding.EncodeToString
	b64cert := b64(certPEM)
	payload := method + "." + b64([]byte(uri)) + "." + b64(body) + "." + b64cert

	digest := sha256.Sum256([]byte(payload))
	sig, err := signLowS(key, digest[:])
	if err != nil {
		return "", fmt.Errorf("failed to sign request token: %w", err)
	}

	return b64cert + "." + b64(sig), nil
}

func parseECDSAKey(keyPEM []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("private key is not valid PEM")
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, expected ECDSA", parsed)
	}
	return key, nil
}

// signLowS produces a DER-encoded ECDSA signature with a normalized
// (low) S value. The ledger's membership providers reject high-S
// signatures, so the CA does too.
func signLowS(key *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	r, s, err := ecdsa.Sign(rand.Reader, key, digest)
	if err != nil {
		return nil, err
	}

	halfOrder := new(big.Int).Rsh(key.Params().N, 1)
	if s.Cmp(halfOrder) > 0 {
		s.Sub(key.Params().N, s)
	}

	var b cryptobyte.Builder
	b.AddASN1(casn1.SEQUENCE, func(child *cryptobyte.Builder) {
		child.AddASN1BigInt(r)
		child.AddASN1BigInt(s)
	})
	return b.Bytes()
}
