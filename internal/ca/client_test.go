package ca

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/govdocs-network/govdocs-demo/internal/config"
	"github.com/govdocs-network/govdocs-demo/internal/ledger"
	"github.com/govdocs-network/govdocs-demo/internal/wallet"
)

func testIdentity(t *testing.T, commonName string) *wallet.Identity {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: commonName},
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

// fakeCA emulates the enroll and register endpoints and counts requests.
type fakeCA struct {
	t        *testing.T
	requests int
	secret   string
}

func (f *fakeCA) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/enroll", func(w http.ResponseWriter, r *http.Request) {
		f.requests++
		user, pass, ok := r.BasicAuth()
		if !ok || pass == "" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"success":false,"errors":[{"code":20,"message":"Authentication failure"}]}`)
			return
		}
		var req struct {
			CertificateRequest string `json:"certificate_request"`
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil || !strings.Contains(req.CertificateRequest, "CERTIFICATE REQUEST") {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"success":false,"errors":[{"code":400,"message":"bad CSR"}]}`)
			return
		}
		cert := base64.StdEncoding.EncodeToString(testIdentity(f.t, user).Certificate)
		fmt.Fprintf(w, `{"success":true,"result":{"Cert":"%s"},"errors":[],"messages":[]}`, cert)
	})
	mux.HandleFunc("/api/v1/register", func(w http.ResponseWriter, r *http.Request) {
		f.requests++
		token := r.Header.Get("Authorization")
		parts := strings.Split(token, ".")
		if len(parts) != 2 {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"success":false,"errors":[{"code":20,"message":"bad token"}]}`)
			return
		}
		certPEM, err := base64.StdEncoding.DecodeString(parts[0])
		if err != nil || !strings.Contains(string(certPEM), "BEGIN CERTIFICATE") {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"success":false,"errors":[{"code":20,"message":"bad token cert"}]}`)
			return
		}
		fmt.Fprintf(w, `{"success":true,"result":{"secret":"%s"},"errors":[],"messages":[]}`, f.secret)
	})
	return mux
}

func testClient(t *testing.T, caURL string) (*Client, *wallet.Wallet) {
	t.Helper()

	w, err := wallet.New(t.TempDir())
	if err != nil {
		t.Fatalf("wallet.New() error = %v", err)
	}

	profile := &ledger.ConnectionProfile{
		MSPID: "Org1MSP",
		CA:    ledger.CAProfile{URL: caURL, Name: "ca-org1"},
	}
	cfg := &config.ServerEnvironment{
		AdminEnrollmentID:     "admin",
		AdminEnrollmentSecret: "adminpw",
		IdentityAffiliation:   "org1.department1",
		CARequestTimeout:      5 * time.Second,
	}

	c, err := New(profile, w, cfg, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, w
}

func caErrorCode(t *testing.T, err error) ErrorCode {
	t.Helper()
	var caErr *CAError
	if !errors.As(err, &caErr) {
		t.Fatalf("error = %v, want *CAError", err)
	}
	return caErr.Code()
}

func TestEnrollAdmin(t *testing.T) {
	fake := &fakeCA{t: t}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	c, w := testClient(t, ts.URL)

	if err := c.EnrollAdmin(context.Background()); err != nil {
		t.Fatalf("EnrollAdmin() error = %v", err)
	}

	admin, err := w.Get("admin")
	if err != nil {
		t.Fatalf("admin identity not stored: %v", err)
	}
	if admin.MSPID != "Org1MSP" {
		t.Errorf("stored MSPID = %q, want Org1MSP", admin.MSPID)
	}
	if admin.Type != wallet.TypeX509 {
		t.Errorf("stored Type = %q, want %q", admin.Type, wallet.TypeX509)
	}
	if !strings.Contains(string(admin.PrivateKey), "BEGIN PRIVATE KEY") {
		t.Error("stored record has no private key")
	}
}

func TestEnrollAdminAlreadyEnrolled(t *testing.T) {
	fake := &fakeCA{t: t}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	c, w := testClient(t, ts.URL)
	if err := w.Put("admin", testIdentity(t, "admin")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	err := c.EnrollAdmin(context.Background())
	if caErrorCode(t, err) != ErrCodeAlreadyEnrolled {
		t.Errorf("EnrollAdmin() error = %v, want ErrCodeAlreadyEnrolled", err)
	}
	if fake.requests != 0 {
		t.Errorf("CA received %d requests, want 0", fake.requests)
	}
}

func TestEnrollAdminCARejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"success":false,"errors":[{"code":20,"message":"Authentication failure"}]}`)
	}))
	defer ts.Close()

	c, w := testClient(t, ts.URL)

	err := c.EnrollAdmin(context.Background())
	if caErrorCode(t, err) != ErrCodeEnrollment {
		t.Errorf("EnrollAdmin() error = %v, want ErrCodeEnrollment", err)
	}
	if w.Exists("admin") {
		t.Error("no identity must be stored after a CA rejection")
	}
}

func TestRegisterAndEnrollUser(t *testing.T) {
	fake := &fakeCA{t: t, secret: "one-time-secret"}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	c, w := testClient(t, ts.URL)
	if err := w.Put("admin", testIdentity(t, "admin")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if err := c.RegisterAndEnrollUser(context.Background(), "appUser2"); err != nil {
		t.Fatalf("RegisterAndEnrollUser() error = %v", err)
	}

	if fake.requests != 2 {
		t.Errorf("CA received %d requests, want 2 (register + enroll)", fake.requests)
	}
	user, err := w.Get("appUser2")
	if err != nil {
		t.Fatalf("user identity not stored: %v", err)
	}
	if user.MSPID != "Org1MSP" {
		t.Errorf("stored MSPID = %q, want Org1MSP", user.MSPID)
	}
}

func TestRegisterAndEnrollUserNoAdmin(t *testing.T) {
	fake := &fakeCA{t: t}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	c, _ := testClient(t, ts.URL)

	err := c.RegisterAndEnrollUser(context.Background(), "bob")
	if caErrorCode(t, err) != ErrCodeAdminNotEnrolled {
		t.Errorf("RegisterAndEnrollUser() error = %v, want ErrCodeAdminNotEnrolled", err)
	}
	if fake.requests != 0 {
		t.Errorf("CA received %d requests, want 0", fake.requests)
	}
}

func TestRegisterAndEnrollUserAlreadyRegistered(t *testing.T) {
	fake := &fakeCA{t: t}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	c, w := testClient(t, ts.URL)
	if err := w.Put("admin", testIdentity(t, "admin")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := w.Put("bob", testIdentity(t, "bob")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	err := c.RegisterAndEnrollUser(context.Background(), "bob")
	if caErrorCode(t, err) != ErrCodeAlreadyRegistered {
		t.Errorf("RegisterAndEnrollUser() error = %v, want ErrCodeAlreadyRegistered", err)
	}
	if fake.requests != 0 {
		t.Errorf("CA received %d requests, want 0", fake.requests)
	}
}

func TestMissingTrustRootForHTTPSEndpoint(t *testing.T) {
	w, err := wallet.New(t.TempDir())
	if err != nil {
		t.Fatalf("wallet.New() error = %v", err)
	}
	profile := &ledger.ConnectionProfile{
		MSPID: "Org1MSP",
		CA:    ledger.CAProfile{URL: "https://localhost:7054", Name: "ca-org1"},
	}
	cfg := &config.ServerEnvironment{
		AdminEnrollmentID: "admin",
		CARequestTimeout:  5 * time.Second,
	}

	_, err = New(profile, w, cfg, slog.Default())
	if !errors.Is(err, ledger.ErrMissingTrustRoot) {
		t.Errorf("New() error = %v, want ErrMissingTrustRoot", err)
	}
}

func TestAuthTokenSignature(t *testing.T) {
	id := testIdentity(t, "admin")
	body := []byte(`{"id":"bob","type":"client"}`)

	token, err := authToken(id.Certificate, id.PrivateKey, http.MethodPost, registerPath, body)
	if err != nil {
		t.Fatalf("authToken() error = %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		t.Fatalf("token has %d parts, want 2", len(parts))
	}

	certPEM, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		t.Fatalf("token certificate is not base64: %v", err)
	}
	if string(certPEM) != string(id.Certificate) {
		t.Error("token does not carry the signer certificate")
	}

	sig, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("token signature is not base64: %v", err)
	}

	block, _ := pem.Decode(id.Certificate)
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}
	pub, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		t.Fatalf("certificate key is %T, want ECDSA", cert.PublicKey)
	}

	b64 := base64.StdEncoding.EncodeToString
	payload := http.MethodPost + "." + b64([]byte(registerPath)) + "." + b64(body) + "." + b64(id.Certificate)
	digest := sha256.Sum256([]byte(payload))

	if !ecdsa.VerifyASN1(pub, digest[:], sig) {
		t.Error("token signature does not verify over the request payload")
	}
}
