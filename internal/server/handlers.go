package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/govdocs-network/govdocs-demo/internal/registry"
	"github.com/govdocs-network/govdocs-demo/internal/version"
)

// issueDocumentRequest is the JSON body for POST /api/documents. The optional
// identityName selects the wallet identity the transaction is signed with.
type issueDocumentRequest struct {
	registry.IssueRequest
	IdentityName string `json:"identityName,omitempty"`
}

// uploadDocumentResponse combines the storage and ledger outcomes of an upload.
type uploadDocumentResponse struct {
	Success    bool            `json:"success"`
	IPFS       uploadIPFSInfo  `json:"ipfs"`
	Blockchain json.RawMessage `json:"blockchain"`
}

type uploadIPFSInfo struct {
	CID      string `json:"cid" example:"bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy"`
	Filename string `json:"filename" example:"passport.pdf"`
	Size     int    `json:"size" example:"482133"`
}

// handleIssueDocument godoc
//
//	@Summary		Issue a document record
//	@Description	Anchors a new document record on the ledger. The docID must
//	@Description	not already exist; duplicates are rejected by the chaincode.
//	@Tags			Documents
//	@Accept			json
//	@Produce		json
//	@Param			request	body		issueDocumentRequest	true	"document record fields"
//	@Success		201		{object}	registry.Document		"the committed record"
//	@Failure		400		{object}	registry.ErrorResponse	"missing required fields"
//	@Failure		500		{object}	registry.ErrorResponse	"transaction rejected"
//	@Router			/api/documents [post]
func (s *Server) handleIssueDocument(w http.ResponseWriter, r *http.Request) {
	var req issueDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		registry.RespondWithErrorResponse(w, r, registry.NewValidationError("invalid JSON request body"))
		return
	}

	result, err := s.service.Issue(r.Context(), req.IdentityName, req.IssueRequest)
	if err != nil {
		registry.RespondWithErrorResponse(w, r, err)
		return
	}

	registry.RespondWithJSONPayload(w, http.StatusCreated, result)
}

// handleReadDocument godoc
//
//	@Summary		Read a document record
//	@Description	Returns the ledger's current copy of one document record.
//	@Tags			Documents
//	@Produce		json
//	@Param			docID		path		string	true	"document id"
//	@Param			identity	query		string	false	"wallet identity to query as"
//	@Success		200			{object}	registry.Document
//	@Failure		404			{object}	registry.ErrorResponse	"unknown document"
//	@Router			/api/documents/{docID} [get]
func (s *Server) handleReadDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	result, err := s.service.Read(r.Context(), r.URL.Query().Get("identity"), docID)
	if err != nil {
		registry.RespondWithErrorResponse(w, r, err)
		return
	}

	registry.RespondWithJSONPayload(w, http.StatusOK, result)
}

// handleListDocuments godoc
//
//	@Summary		List all document records
//	@Description	Returns every document record in the ledger's world state.
//	@Tags			Documents
//	@Produce		json
//	@Param			identity	query		string	false	"wallet identity to query as"
//	@Success		200			{array}		registry.Document
//	@Router			/api/documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.ListAll(r.Context(), r.URL.Query().Get("identity"))
	if err != nil {
		registry.RespondWithErrorResponse(w, r, err)
		return
	}

	registry.RespondWithJSONPayload(w, http.StatusOK, result)
}

// handleRevokeDocument godoc
//
//	@Summary		Revoke a document record
//	@Description	Flips the record's revoked flag. The transition is one-way;
//	@Description	revoking an already-revoked document is rejected.
//	@Tags			Documents
//	@Produce		json
//	@Param			docID		path		string	true	"document id"
//	@Param			identity	query		string	false	"wallet identity to sign with"
//	@Success		200			{object}	registry.Document		"the revoked record"
//	@Failure		500			{object}	registry.ErrorResponse	"transaction rejected"
//	@Router			/api/documents/{docID}/revoke [put]
func (s *Server) handleRevokeDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	result, err := s.service.Revoke(r.Context(), r.URL.Query().Get("identity"), docID)
	if err != nil {
		registry.RespondWithErrorResponse(w, r, err)
		return
	}

	registry.RespondWithJSONPayload(w, http.StatusOK, result)
}

// handleUploadDocument godoc
//
//	@Summary		Upload a document and issue its record
//	@Description	Stores the uploaded file on IPFS, then issues a ledger record
//	@Description	referencing the returned content address as the document hash.
//	@Tags			Documents
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file			formData	file	true	"document content"
//	@Param			docID			formData	string	true	"document id"
//	@Param			owner			formData	string	true	"document owner"
//	@Param			issuer			formData	string	true	"issuing authority"
//	@Param			docType			formData	string	true	"document type"
//	@Param			issueDate		formData	string	true	"issue date"
//	@Param			identityName	formData	string	false	"wallet identity to sign with"
//	@Success		201				{object}	uploadDocumentResponse
//	@Failure		400				{object}	registry.ErrorResponse	"missing fields or file"
//	@Failure		502				{object}	registry.ErrorResponse	"storage network unavailable"
//	@Router			/api/upload [post]
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		registry.RespondWithErrorResponse(w, r, registry.NewValidationError("no file uploaded: expected multipart field 'file'"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		registry.RespondWithErrorResponse(w, r, registry.WrapInternalError(err, "failed to read uploaded file"))
		return
	}

	result, err := s.service.UploadAndIssue(r.Context(), registry.UploadRequest{
		Data:         data,
		Filename:     header.Filename,
		DocID:        r.FormValue("docID"),
		Owner:        r.FormValue("owner"),
		Issuer:       r.FormValue("issuer"),
		DocType:      r.FormValue("docType"),
		IssueDate:    r.FormValue("issueDate"),
		IdentityName: r.FormValue("identityName"),
	})
	if err != nil {
		registry.RespondWithErrorResponse(w, r, err)
		return
	}

	registry.RespondWithJSONPayload(w, http.StatusCreated, uploadDocumentResponse{
		Success: true,
		IPFS: uploadIPFSInfo{
			CID:      result.CID,
			Filename: result.Filename,
			Size:     result.Size,
		},
		Blockchain: result.Blockchain,
	})
}

// handleHealth godoc
//
//	@Summary		Health (liveness) Check
//	@Description	Check if the HTTP service is alive and responding.
//	@Tags			Common
//	@Produce		plain
//	@Success		200	{string}	string	"OK"
//	@Router			/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleVersion godoc
//
//	@Summary		Get version information
//	@Description	Returns the version and build information for the service
//	@Tags			Common
//	@Produce		json
//	@Success		200	{object}	version.Info	"Version information"
//	@Router			/version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	registry.RespondWithJSONPayload(w, http.StatusOK, version.Get())
}
