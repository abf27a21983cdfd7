// Package ledger implements the transaction gateway to the Fabric network.
//
// The gateway resolves a caller identity from the credential wallet, opens a
// session scoped to a single request, and exposes submit (ordered,
// consensus-committed) and evaluate (read-only) operations against the
// chaincode named in the connection profile. Sessions are never pooled or
// reused; the one long-lived resource is the underlying grpc connection,
// which is multiplexed and safe to share across requests.
package ledger

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-gateway/pkg/identity"
	gwproto "github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"

	"github.com/govdocs-network/govdocs-demo/internal/config"
	"github.com/govdocs-network/govdocs-demo/internal/wallet"
)

// Contract is the per-session handle passed to the function scoped by
// WithSession. It is valid only until that function returns.
type Contract interface {
	// Submit routes a state-changing transaction through ordering and blocks
	// until it is committed or rejected.
	Submit(ctx context.Context, transactionName string, args ...string) ([]byte, error)

	// Evaluate runs a read-only query against the gateway peer's current
	// world state. Nothing is ordered or committed.
	Evaluate(ctx context.Context, transactionName string, args ...string) ([]byte, error)
}

// Gateway opens per-request sessions against the Fabric network.
type Gateway struct {
	profile *ConnectionProfile
	wallet  *wallet.Wallet
	cfg     *config.ServerEnvironment
	logger  *slog.Logger
	conn    *grpc.ClientConn
}

// Connect builds the gateway and its grpc client connection. The connection
// is lazy: no network I/O happens until the first transaction.
func Connect(profile *ConnectionProfile, w *wallet.Wallet, cfg *config.ServerEnvironment, logger *slog.Logger) (*Gateway, error) {
	caPEM, err := profile.Peer.TLSCACert.Resolve()
	if err != nil {
		return nil, err
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("%w: peer TLS CA certificate is not valid PEM", ErrMissingTrustRoot)
	}

	transport := credentials.NewTLS(&tls.Config{
		RootCAs:    pool,
		ServerName: profile.Peer.ServerNameOverride,
		MinVersion: tls.VersionTLS12,
	})

	conn, err := grpc.NewClient(profile.Peer.Endpoint,
		grpc.WithTransportCredentials(transport),
		grpc.WithConnectParams(grpc.ConnectParams{MinConnectTimeout: cfg.GatewayDialTimeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to create peer connection to %s: %w", profile.Peer.Endpoint, err)
	}

	return &Gateway{
		profile: profile,
		wallet:  w,
		cfg:     cfg,
		logger:  logger,
		conn:    conn,
	}, nil
}

// Close releases the underlying grpc connection.
func (g *Gateway) Close() error {
	return g.conn.Close()
}

// WithSession resolves identityName from the wallet, opens a gateway session
// under that identity and invokes fn with the contract handle. The session is
// torn down on every exit path before WithSession returns, and the handle is
// invalidated so late calls fail instead of leaking onto a closed session.
//
// A wallet miss fails with ErrCodeIdentityNotFound before any network use.
func (g *Gateway) WithSession(ctx context.Context, identityName string, fn func(Contract) error) error {
	record, err := g.wallet.Get(identityName)
	if err != nil {
		if errors.Is(err, wallet.ErrIdentityNotFound) {
			return NewIdentityNotFoundError(err, identityName)
		}
		return WrapSessionError(err, fmt.Sprintf("failed to resolve identity %q", identityName))
	}

	id, sign, err := gatewayIdentity(record)
	if err != nil {
		return WrapSessionError(err, fmt.Sprintf("invalid credential material for %q", identityName))
	}

	gw, err := client.Connect(id,
		client.WithSign(sign),
		client.WithClientConnection(g.conn),
		client.WithEvaluateTimeout(g.cfg.EvaluateTimeout),
		client.WithEndorseTimeout(g.cfg.EndorseTimeout),
		client.WithSubmitTimeout(g.cfg.SubmitTimeout),
		client.WithCommitStatusTimeout(g.cfg.CommitStatusTimeout),
	)
	if err != nil {
		return WrapSessionError(err, fmt.Sprintf("failed to open gateway session for %q", identityName))
	}

	session := &Session{
		contract: gw.GetNetwork(g.profile.Channel).GetContract(g.profile.Chaincode),
		logger:   g.logger.With(slog.String("identity", identityName)),
	}
	defer func() {
		session.closed = true
		gw.Close()
	}()

	return fn(session)
}

// gatewayIdentity converts a wallet record into the signing identity used by
// the Fabric gateway client.
func gatewayIdentity(record *wallet.Identity) (identity.Identity, identity.Sign, error) {
	cert, err := identity.CertificateFromPEM(record.Certificate)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse enrollment certificate: %w", err)
	}

	id, err := identity.NewX509Identity(record.MSPID, cert)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build X.509 identity: %w", err)
	}

	key, err := identity.PrivateKeyFromPEM(record.PrivateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	sign, err := identity.NewPrivateKeySign(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build signer: %w", err)
	}

	return id, sign, nil
}

// Session is the contract handle for one request-scoped gateway session.
type Session struct {
	contract *client.Contract
	logger   *slog.Logger
	closed   bool
}

var _ Contract = (*Session)(nil)

func (s *Session) Submit(ctx context.Context, transactionName string, args ...string) ([]byte, error) {
	if s.closed {
		return nil, NewSessionClosedError("submit")
	}

	result, err := s.contract.SubmitWithContext(ctx, transactionName, client.WithArguments(args...))
	if err != nil {
		mapped := mapSubmitError(err, transactionName)
		s.logger.Warn("submit failed",
			slog.String("transaction", transactionName),
			slog.String("error", err.Error()),
			slog.Any("details", transactionErrorDetails(err)),
		)
		return nil, mapped
	}
	return result, nil
}

func (s *Session) Evaluate(ctx context.Context, transactionName string, args ...string) ([]byte, error) {
	if s.closed {
		return nil, NewSessionClosedError("evaluate")
	}

	result, err := s.contract.EvaluateWithContext(ctx, transactionName, client.WithArguments(args...))
	if err != nil {
		return nil, WrapQueryError(err, transactionName)
	}
	return result, nil
}

// mapSubmitError classifies a gateway submit failure. Endorsement rejections
// (including chaincode business rules) and failed validation map to
// ErrCodeEndorsementFailure; ordering and commit-status failures map to
// ErrCodeOrderingTimeout. No retry is attempted at this layer.
func mapSubmitError(err error, txName string) error {
	var (
		endorseErr      *client.EndorseError
		submitErr       *client.SubmitError
		commitStatusErr *client.CommitStatusError
		commitErr       *client.CommitError
	)

	switch {
	case errors.As(err, &endorseErr):
		return WrapEndorsementError(err, txName)
	case errors.As(err, &commitErr):
		// committed but invalidated by validation (e.g. MVCC conflict)
		return WrapEndorsementError(err, txName)
	case errors.As(err, &submitErr):
		return WrapOrderingError(err, txName)
	case errors.As(err, &commitStatusErr):
		return WrapOrderingError(err, txName)
	case errors.Is(err, context.DeadlineExceeded):
		return WrapOrderingError(err, txName)
	default:
		return WrapEndorsementError(err, txName)
	}
}

// transactionErrorDetails extracts the per-peer gateway error details, when
// present, for diagnostics.
func transactionErrorDetails(err error) []string {
	var details []string
	for _, d := range status.Convert(err).Details() {
		if detail, ok := d.(*gwproto.ErrorDetail); ok {
			details = append(details, fmt.Sprintf("%s (%s): %s", detail.GetAddress(), detail.GetMspId(), detail.GetMessage()))
		}
	}
	return details
}
