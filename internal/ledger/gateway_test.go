package ledger

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/govdocs-network/govdocs-demo/internal/config"
	"github.com/govdocs-network/govdocs-demo/internal/wallet"
)

func testConfig() *config.ServerEnvironment {
	return &config.ServerEnvironment{
		GatewayDialTimeout:  5 * time.Second,
		EvaluateTimeout:     5 * time.Second,
		EndorseTimeout:      15 * time.Second,
		SubmitTimeout:       5 * time.Second,
		CommitStatusTimeout: time.Minute,
	}
}

// selfSignedIdentity generates a throwaway ECDSA certificate and key pair in
// the PEM form the wallet stores.
func selfSignedIdentity(t *testing.T) *wallet.Identity {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "appUser2"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("failed to marshal key: %v", err)
	}

	return &wallet.Identity{
		Certificate: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}),
		PrivateKey:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
		MSPID:       "Org1MSP",
		Type:        wallet.TypeX509,
	}
}

func testGateway(t *testing.T) (*Gateway, *wallet.Wallet) {
	t.Helper()

	w, err := wallet.New(t.TempDir())
	if err != nil {
		t.Fatalf("wallet.New() error = %v", err)
	}

	profile := &ConnectionProfile{
		MSPID:     "Org1MSP",
		Channel:   "mychannel",
		Chaincode: "document",
		Peer: PeerProfile{
			Endpoint:           "localhost:7051",
			ServerNameOverride: "peer0.org1.example.com",
			TLSCACert:          TrustRoot{PEM: string(selfSignedIdentity(t).Certificate)},
		},
	}

	g, err := Connect(profile, w, testConfig(), slog.Default())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g, w
}

func TestWithSessionUnknownIdentity(t *testing.T) {
	g, _ := testGateway(t)

	called := false
	err := g.WithSession(context.Background(), "ghost", func(Contract) error {
		called = true
		return nil
	})

	var ledgerErr *LedgerError
	if !errors.As(err, &ledgerErr) || ledgerErr.Code() != ErrCodeIdentityNotFound {
		t.Fatalf("WithSession() error = %v, want ErrCodeIdentityNotFound", err)
	}
	if !errors.Is(err, wallet.ErrIdentityNotFound) {
		t.Errorf("WithSession() error should wrap wallet.ErrIdentityNotFound, got %v", err)
	}
	if called {
		t.Error("scoped function must not run for an unknown identity")
	}
}

func TestWithSessionScopesTheContract(t *testing.T) {
	g, w := testGateway(t)
	if err := w.Put("appUser2", selfSignedIdentity(t)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var captured Contract
	err := g.WithSession(context.Background(), "appUser2", func(c Contract) error {
		captured = c
		return nil
	})
	if err != nil {
		t.Fatalf("WithSession() error = %v", err)
	}
	if captured == nil {
		t.Fatal("scoped function did not receive a contract handle")
	}

	// the handle must be terminal once the scope has exited
	_, err = captured.Submit(context.Background(), "IssueDocument")
	var ledgerErr *LedgerError
	if !errors.As(err, &ledgerErr) || ledgerErr.Code() != ErrCodeSessionClosed {
		t.Errorf("Submit() after scope exit error = %v, want ErrCodeSessionClosed", err)
	}
	_, err = captured.Evaluate(context.Background(), "ReadDocument", "DOC100")
	if !errors.As(err, &ledgerErr) || ledgerErr.Code() != ErrCodeSessionClosed {
		t.Errorf("Evaluate() after scope exit error = %v, want ErrCodeSessionClosed", err)
	}
}

func TestWithSessionTearsDownOnError(t *testing.T) {
	g, w := testGateway(t)
	if err := w.Put("appUser2", selfSignedIdentity(t)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	boom := errors.New("boom")
	var captured Contract
	err := g.WithSession(context.Background(), "appUser2", func(c Contract) error {
		captured = c
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithSession() error = %v, want the scoped function's error", err)
	}

	// teardown must have run even though fn failed
	if _, err := captured.Submit(context.Background(), "IssueDocument"); err == nil {
		t.Error("session should be closed after a failed scope")
	}
}

func TestWithSessionBadCredentialMaterial(t *testing.T) {
	g, w := testGateway(t)
	if err := w.Put("broken", &wallet.Identity{
		Certificate: []byte("not a certificate"),
		PrivateKey:  []byte("not a key"),
		MSPID:       "Org1MSP",
	}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	err := g.WithSession(context.Background(), "broken", func(Contract) error { return nil })
	var ledgerErr *LedgerError
	if !errors.As(err, &ledgerErr) || ledgerErr.Code() != ErrCodeSessionFailure {
		t.Errorf("WithSession() error = %v, want ErrCodeSessionFailure", err)
	}
}

func TestMapSubmitErrorDeadline(t *testing.T) {
	err := mapSubmitError(context.DeadlineExceeded, "IssueDocument")
	var ledgerErr *LedgerError
	if !errors.As(err, &ledgerErr) || ledgerErr.Code() != ErrCodeOrderingTimeout {
		t.Errorf("mapSubmitError(DeadlineExceeded) = %v, want ErrCodeOrderingTimeout", err)
	}
}
