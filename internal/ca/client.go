// Package ca implements the certificate-authority client for identity
// provisioning: bootstrap of the administrative identity and registration +
// enrollment of subordinate user identities under the admin's authority.
// Issued credentials are stored in the filesystem wallet, which the
// transaction gateway reads.
package ca

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/govdocs-network/govdocs-demo/internal/config"
	"github.com/govdocs-network/govdocs-demo/internal/ledger"
	"github.com/govdocs-network/govdocs-demo/internal/wallet"
)

const (
	enrollPath   = "/api/v1/enroll"
	registerPath = "/api/v1/register"
)

// Client talks to one Fabric CA.
type Client struct {
	url         string
	caName      string
	mspID       string
	affiliation string
	adminID     string
	adminSecret string
	wallet      *wallet.Wallet
	httpClient  *http.Client
	logger      *slog.Logger
}

// New builds the CA client from the connection profile's CA section. An
// https CA URL requires a resolvable trust root; failure to resolve one
// surfaces ledger.ErrMissingTrustRoot.
func New(profile *ledger.ConnectionProfile, w *wallet.Wallet, cfg *config.ServerEnvironment, logger *slog.Logger) (*Client, error) {
	if profile.CA.URL == "" {
		return nil, fmt.Errorf("ca: connection profile has no certificate authority URL")
	}

	httpClient := &http.Client{Timeout: cfg.CARequestTimeout}
	if strings.HasPrefix(profile.CA.URL, "https://") {
		caPEM, err := profile.CA.TLSCACert.Resolve()
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("%w: CA TLS certificate is not valid PEM", ledger.ErrMissingTrustRoot)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
		}
	}

	return &Client{
		url:         strings.TrimRight(profile.CA.URL, "/"),
		caName:      profile.CA.Name,
		mspID:       profile.MSPID,
		affiliation: cfg.IdentityAffiliation,
		adminID:     cfg.AdminEnrollmentID,
		adminSecret: cfg.AdminEnrollmentSecret,
		wallet:      w,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// EnrollAdmin enrolls the administrative identity using the well-known
// enrollment secret and stores it in the wallet. Returns
// ErrCodeAlreadyEnrolled when the admin record already exists; the existence
// check is best-effort and the wallet's insert-if-absent write is the
// backstop.
func (c *Client) EnrollAdmin(ctx context.Context) error {
	if c.wallet.Exists(c.adminID) {
		return NewAlreadyEnrolledError(c.adminID)
	}

	id, err := c.enroll(ctx, c.adminID, c.adminSecret)
	if err != nil {
		return err
	}

	if err := c.wallet.Put(c.adminID, id); err != nil {
		if errors.Is(err, wallet.ErrDuplicateIdentity) {
			return NewAlreadyEnrolledError(c.adminID)
		}
		return WrapEnrollmentError(err, "failed to store admin identity")
	}

	c.logger.Info("enrolled admin identity",
		slog.String("identity", c.adminID),
		slog.String("msp_id", c.mspID),
	)
	return nil
}

// RegisterAndEnrollUser registers enrollmentID with the CA under the admin's
// authority (client role, configured department affiliation), enrolls it
// with the returned one-time secret, and stores the identity in the wallet.
//
// Fails with ErrCodeAlreadyRegistered when the name is already in the wallet
// and with ErrCodeAdminNotEnrolled, before any network call, when no admin
// identity exists.
func (c *Client) RegisterAndEnrollUser(ctx context.Context, enrollmentID string) error {
	if enrollmentID == "" {
		return NewEnrollmentError("enrollment id must not be empty")
	}
	if c.wallet.Exists(enrollmentID) {
		return NewAlreadyRegisteredError(enrollmentID)
	}

	admin, err := c.wallet.Get(c.adminID)
	if err != nil {
		if errors.Is(err, wallet.ErrIdentityNotFound) {
			return NewAdminNotEnrolledError(err, c.adminID)
		}
		return WrapEnrollmentError(err, "failed to load admin identity")
	}

	secret, err := c.register(ctx, admin, enrollmentID)
	if err != nil {
		return err
	}

	id, err := c.enroll(ctx, enrollmentID, secret)
	if err != nil {
		return err
	}

	if err := c.wallet.Put(enrollmentID, id); err != nil {
		if errors.Is(err, wallet.ErrDuplicateIdentity) {
			return NewAlreadyRegisteredError(enrollmentID)
		}
		return WrapEnrollmentError(err, fmt.Sprintf("failed to store identity %q", enrollmentID))
	}

	c.logger.Info("registered and enrolled user identity",
		slog.String("identity", enrollmentID),
		slog.String("affiliation", c.affiliation),
		slog.String("msp_id", c.mspID),
	)
	return nil
}

// caResponse is the CA's REST envelope.
type caResponse struct {
	Success  bool            `json:"success"`
	Result   json.RawMessage `json:"result"`
	Errors   []caMessage     `json:"errors"`
	Messages []caMessage     `json:"messages"`
}

type caMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (r *caResponse) errorText() string {
	var msgs []string
	for _, e := range r.Errors {
		msgs = append(msgs, fmt.Sprintf("[%d] %s", e.Code, e.Message))
	}
	if len(msgs) == 0 {
		return "unknown CA error"
	}
	return strings.Join(msgs, "; ")
}

// enroll generates a key pair locally, sends the CSR with basic-auth
// credentials, and returns the wallet record for the issued certificate.
func (c *Client) enroll(ctx context.Context, enrollmentID, secret string) (*wallet.Identity, error) {
	csrPEM, keyPEM, err := newCertificateRequest(enrollmentID)
	if err != nil {
		return nil, WrapEnrollmentError(err, "failed to generate certificate request")
	}

	body, err := json.Marshal(map[string]string{
		"certificate_request": string(csrPEM),
		"caname":              c.caName,
	})
	if err != nil {
		return nil, WrapEnrollmentError(err, "failed to encode enrollment request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+enrollPath, bytes.NewReader(body))
	if err != nil {
		return nil, WrapEnrollmentError(err, "failed to build enrollment request")
	}
	req.SetBasicAuth(enrollmentID, secret)
	req.Header.Set("Content-Type", "application/json")

	var result struct {
		Cert string `json:"Cert"`
	}
	if err := c.do(req, &result); err != nil {
		return nil, err
	}

	certPEM, err := base64.StdEncoding.DecodeString(result.Cert)
	if err != nil {
		return nil, WrapEnrollmentError(err, "CA returned an unreadable certificate")
	}

	return &wallet.Identity{
		Certificate: certPEM,
		PrivateKey:  keyPEM,
		MSPID:       c.mspID,
		Type:        wallet.TypeX509,
	}, nil
}

// register asks the CA to register a new enrollment id and returns the
// one-time enrollment secret. The request is authorized with a token signed
// by the admin identity.
func (c *Client) register(ctx context.Context, admin *wallet.Identity, enrollmentID string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"id":          enrollmentID,
		"type":        "client",
		"affiliation": c.affiliation,
		"caname":      c.caName,
	})
	if err != nil {
		return "", WrapEnrollmentError(err, "failed to encode registration request")
	}

	token, err := authToken(admin.Certificate, admin.PrivateKey, http.MethodPost, registerPath, body)
	if err != nil {
		return "", WrapEnrollmentError(err, "failed to build registration token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+registerPath, bytes.NewReader(body))
	if err != nil {
		return "", WrapEnrollmentError(err, "failed to build registration request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)

	var result struct {
		Secret string `json:"secret"`
	}
	if err := c.do(req, &result); err != nil {
		return "", err
	}
	if result.Secret == "" {
		return "", NewEnrollmentError("CA returned no enrollment secret")
	}
	return result.Secret, nil
}

// do sends the request and decodes the CA envelope into result.
func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return WrapEnrollmentError(err, fmt.Sprintf("CA request to %s failed", req.URL.Path))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return WrapEnrollmentError(err, "failed to read CA response")
	}

	var envelope caResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return WrapEnrollmentError(err, fmt.Sprintf("CA returned an unreadable response (status %d)", resp.StatusCode))
	}
	if !envelope.Success {
		return NewEnrollmentError(fmt.Sprintf("CA rejected %s: %s", req.URL.Path, envelope.errorText()))
	}

	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return WrapEnrollmentError(err, "failed to decode CA result")
	}
	return nil
}
