// Package registry implements the document lifecycle workflows: issuing a
// record on the ledger, reading and listing records, revoking a record, and
// the composite upload-then-issue flow that anchors a content address from
// the storage network.
package registry

import "encoding/json"

// Document mirrors the record owned by the "document" chaincode. The ledger
// is the only writer; this layer requests mutation through signed
// transactions and reads back the authoritative copy.
type Document struct {
	DocID     string `json:"docID"`
	Owner     string `json:"owner"`
	Issuer    string `json:"issuer"`
	DocType   string `json:"docType"`
	Hash      string `json:"hash"`
	IssueDate string `json:"issueDate"`
	Revoked   bool   `json:"revoked"`
}

// rawResult preserves the chaincode's response for the API payload: valid
// JSON passes through untouched, anything else is quoted as a JSON string.
func rawResult(data []byte) json.RawMessage {
	if len(data) == 0 {
		return nil
	}
	if json.Valid(data) {
		return json.RawMessage(data)
	}
	quoted, err := json.Marshal(string(data))
	if err != nil {
		return nil
	}
	return json.RawMessage(quoted)
}
