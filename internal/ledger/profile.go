package ledger

// profile.go loads the static connection profile describing the Fabric
// network: peer endpoint, certificate authority, trust roots, channel and
// chaincode names. The profile is loaded once at startup and never mutated.

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrMissingTrustRoot is returned when a profile entry supplies neither an
// embedded PEM block nor a resolvable file path for a TLS CA certificate.
var ErrMissingTrustRoot = errors.New("ledger: no valid TLS CA certificate in connection profile")

// TrustRoot is a TLS CA certificate supplied either inline (pem) or as a
// path to a PEM file. When both are set the embedded value wins.
type TrustRoot struct {
	PEM  string `json:"pem,omitempty"`
	Path string `json:"path,omitempty"`
}

// Resolve returns the PEM bytes of the trust root.
func (t TrustRoot) Resolve() ([]byte, error) {
	if t.PEM != "" {
		return []byte(t.PEM), nil
	}
	if t.Path != "" {
		data, err := os.ReadFile(t.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrMissingTrustRoot, t.Path, err)
		}
		return data, nil
	}
	return nil, ErrMissingTrustRoot
}

// PeerProfile identifies the gateway peer the client connects to.
type PeerProfile struct {
	Endpoint           string    `json:"endpoint"`
	ServerNameOverride string    `json:"serverNameOverride,omitempty"`
	TLSCACert          TrustRoot `json:"tlsCACert"`
}

// CAProfile identifies the certificate authority used for enrollment.
type CAProfile struct {
	URL       string    `json:"url"`
	Name      string    `json:"caName,omitempty"`
	TLSCACert TrustRoot `json:"tlsCACert"`
}

// ConnectionProfile is the static network profile for one organization.
type ConnectionProfile struct {
	MSPID     string      `json:"mspId"`
	Channel   string      `json:"channel"`
	Chaincode string      `json:"chaincode"`
	Peer      PeerProfile `json:"peer"`
	CA        CAProfile   `json:"certificateAuthority"`
}

// LoadProfile reads and validates a connection profile from a JSON file.
func LoadProfile(path string) (*ConnectionProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to read connection profile %s: %w", path, err)
	}

	var p ConnectionProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("ledger: invalid connection profile %s: %w", path, err)
	}

	if p.MSPID == "" {
		return nil, fmt.Errorf("ledger: connection profile %s: mspId is required", path)
	}
	if p.Peer.Endpoint == "" {
		return nil, fmt.Errorf("ledger: connection profile %s: peer.endpoint is required", path)
	}
	if p.Channel == "" {
		p.Channel = "mychannel"
	}
	if p.Chaincode == "" {
		p.Chaincode = "document"
	}

	return &p, nil
}
