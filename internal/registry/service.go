package registry

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ipfs/go-cid"

	"github.com/govdocs-network/govdocs-demo/internal/ledger"
)

// Chaincode transaction names, fixed by the deployed contract.
const (
	txIssueDocument   = "IssueDocument"
	txReadDocument    = "ReadDocument"
	txGetAllDocuments = "GetAllDocuments"
	txRevokeDocument  = "RevokeDocument"
	txInitLedger      = "InitLedger"
)

// TransactionGateway opens request-scoped ledger sessions. Implemented by
// ledger.Gateway; faked in tests.
type TransactionGateway interface {
	WithSession(ctx context.Context, identityName string, fn func(ledger.Contract) error) error
}

// ContentStore writes and reads immutable blobs by content address.
// Implemented by ipfs.Client; faked in tests.
type ContentStore interface {
	Put(ctx context.Context, data []byte, displayName string) (cid.Cid, error)
	Get(ctx context.Context, id cid.Cid) ([]byte, error)
}

// Service drives the document lifecycle. Every operation opens exactly one
// ledger session scoped to the request.
type Service struct {
	gateway         TransactionGateway
	store           ContentStore
	defaultIdentity string
	logger          *slog.Logger
}

// NewService wires the orchestrator to its collaborators.
func NewService(gateway TransactionGateway, store ContentStore, defaultIdentity string, logger *slog.Logger) *Service {
	return &Service{
		gateway:         gateway,
		store:           store,
		defaultIdentity: defaultIdentity,
		logger:          logger,
	}
}

// identityOrDefault falls back to the configured default identity.
func (s *Service) identityOrDefault(name string) string {
	if name == "" {
		return s.defaultIdentity
	}
	return name
}

// IssueRequest carries the fields of a new document record. All fields are
// required; the chaincode is the sole authority on docID uniqueness.
type IssueRequest struct {
	DocID     string `json:"docID"`
	Owner     string `json:"owner"`
	Issuer    string `json:"issuer"`
	DocType   string `json:"docType"`
	Hash      string `json:"hash"`
	IssueDate string `json:"issueDate"`
}

func (r IssueRequest) missingFields() []string {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"docID", r.DocID},
		{"owner", r.Owner},
		{"issuer", r.Issuer},
		{"docType", r.DocType},
		{"hash", r.Hash},
		{"issueDate", r.IssueDate},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Issue anchors a new document record on the ledger.
func (s *Service) Issue(ctx context.Context, identityName string, req IssueRequest) (json.RawMessage, error) {
	if missing := req.missingFields(); len(missing) > 0 {
		return nil, NewMissingFieldsError(missing)
	}

	var result []byte
	err := s.gateway.WithSession(ctx, s.identityOrDefault(identityName), func(c ledger.Contract) error {
		var err error
		result, err = c.Submit(ctx, txIssueDocument,
			req.DocID, req.Owner, req.Issuer, req.DocType, req.Hash, req.IssueDate)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("issued document", slog.String("doc_id", req.DocID))
	return rawResult(result), nil
}

// Read returns the ledger's authoritative copy of one document record.
func (s *Service) Read(ctx context.Context, identityName, docID string) (json.RawMessage, error) {
	if docID == "" {
		return nil, NewValidationError("docID must not be empty")
	}

	var result []byte
	err := s.gateway.WithSession(ctx, s.identityOrDefault(identityName), func(c ledger.Contract) error {
		var err error
		result, err = c.Evaluate(ctx, txReadDocument, docID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rawResult(result), nil
}

// ListAll returns every document record in the ledger's world state.
func (s *Service) ListAll(ctx context.Context, identityName string) (json.RawMessage, error) {
	var result []byte
	err := s.gateway.WithSession(ctx, s.identityOrDefault(identityName), func(c ledger.Contract) error {
		var err error
		result, err = c.Evaluate(ctx, txGetAllDocuments)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rawResult(result), nil
}

// Revoke flips a document's revoked flag from false to true. The transition
// is one-way; the chaincode rejects revoking a nonexistent or
// already-revoked document and that rejection surfaces unmodified.
func (s *Service) Revoke(ctx context.Context, identityName, docID string) (json.RawMessage, error) {
	if docID == "" {
		return nil, NewValidationError("docID must not be empty")
	}

	var result []byte
	err := s.gateway.WithSession(ctx, s.identityOrDefault(identityName), func(c ledger.Contract) error {
		var err error
		result, err = c.Submit(ctx, txRevokeDocument, docID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("revoked document", slog.String("doc_id", docID))
	return rawResult(result), nil
}

// InitLedger seeds the ledger with the chaincode's sample documents.
func (s *Service) InitLedger(ctx context.Context, identityName string) error {
	return s.gateway.WithSession(ctx, s.identityOrDefault(identityName), func(c ledger.Contract) error {
		_, err := c.Submit(ctx, txInitLedger)
		return err
	})
}

// UploadRequest carries the document bytes and record fields for the
// composite upload flow. Hash is derived, not supplied.
type UploadRequest struct {
	Data         []byte
	Filename     string
	DocID        string
	Owner        string
	Issuer       string
	DocType      string
	IssueDate    string
	IdentityName string
}

// UploadResult combines the storage and ledger outcomes.
type UploadResult struct {
	CID        string          `json:"cid"`
	Filename   string          `json:"filename"`
	Size       int             `json:"size"`
	Blockchain json.RawMessage `json:"blockchain"`
}

// UploadAndIssue writes the document bytes to the content store, then issues
// a ledger record referencing the derived content address.
//
// The two phases are not atomic. A storage failure stops the workflow before
// any ledger submission. A ledger failure after a successful write leaves an
// orphaned blob: no record references it, which is recoverable and
// non-corrupting. The orphan is logged for out-of-band reconciliation; no
// garbage-collection policy is applied here.
func (s *Service) UploadAndIssue(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	issueReq := IssueRequest{
		DocID:     req.DocID,
		Owner:     req.Owner,
		Issuer:    req.Issuer,
		DocType:   req.DocType,
		Hash:      "pending", // placeholder so field validation reports only caller-supplied fields
		IssueDate: req.IssueDate,
	}
	if missing := issueReq.missingFields(); len(missing) > 0 {
		return nil, NewMissingFieldsError(missing)
	}
	if len(req.Data) == 0 {
		return nil, NewValidationError("no file content uploaded")
	}

	id, err := s.store.Put(ctx, req.Data, req.Filename)
	if err != nil {
		return nil, err
	}

	issueReq.Hash = id.String()
	result, err := s.Issue(ctx, req.IdentityName, issueReq)
	if err != nil {
		s.logger.Warn("ledger submission failed after content upload, blob is orphaned",
			slog.String("doc_id", req.DocID),
			slog.String("cid", id.String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return &UploadResult{
		CID:        id.String(),
		Filename:   req.Filename,
		Size:       len(req.Data),
		Blockchain: result,
	}, nil
}
