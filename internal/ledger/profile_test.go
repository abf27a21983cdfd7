package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestTrustRootResolve(t *testing.T) {
	pemValue := "-----BEGIN CERTIFICATE-----\nMIIB\n-----END CERTIFICATE-----\n"

	certFile := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(certFile, []byte(pemValue), 0o600); err != nil {
		t.Fatalf("failed to write cert file: %v", err)
	}

	tests := []struct {
		name    string
		root    TrustRoot
		want    string
		wantErr bool
	}{
		{"embedded pem", TrustRoot{PEM: pemValue}, pemValue, false},
		{"referenced path", TrustRoot{Path: certFile}, pemValue, false},
		{"pem wins over path", TrustRoot{PEM: pemValue, Path: "/nonexistent"}, pemValue, false},
		{"unreadable path", TrustRoot{Path: "/nonexistent/ca.pem"}, "", true},
		{"neither supplied", TrustRoot{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.root.Resolve()
			if tt.wantErr {
				if !errors.Is(err, ErrMissingTrustRoot) {
					t.Errorf("Resolve() error = %v, want ErrMissingTrustRoot", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connection-org1.json")
	profileJSON := `{
		"mspId": "Org1MSP",
		"peer": {
			"endpoint": "localhost:7051",
			"serverNameOverride": "peer0.org1.example.com",
			"tlsCACert": {"path": "ca.pem"}
		},
		"certificateAuthority": {
			"url": "https://localhost:7054",
			"caName": "ca-org1",
			"tlsCACert": {"pem": "-----BEGIN CERTIFICATE-----\nX\n-----END CERTIFICATE-----\n"}
		}
	}`
	if err := os.WriteFile(path, []byte(profileJSON), 0o600); err != nil {
		t.Fatalf("failed to write profile: %v", err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}

	if p.MSPID != "Org1MSP" {
		t.Errorf("MSPID = %q, want Org1MSP", p.MSPID)
	}
	if p.Peer.Endpoint != "localhost:7051" {
		t.Errorf("Peer.Endpoint = %q", p.Peer.Endpoint)
	}
	if p.CA.Name != "ca-org1" {
		t.Errorf("CA.Name = %q", p.CA.Name)
	}

	// channel and chaincode default when omitted
	if p.Channel != "mychannel" {
		t.Errorf("Channel = %q, want mychannel", p.Channel)
	}
	if p.Chaincode != "document" {
		t.Errorf("Chaincode = %q, want document", p.Chaincode)
	}
}

func TestLoadProfileValidation(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		json string
	}{
		{"missing mspId", `{"peer": {"endpoint": "localhost:7051"}}`},
		{"missing peer endpoint", `{"mspId": "Org1MSP", "peer": {}}`},
		{"invalid json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			if err := os.WriteFile(path, []byte(tt.json), 0o600); err != nil {
				t.Fatalf("failed to write profile: %v", err)
			}
			if _, err := LoadProfile(path); err == nil {
				t.Error("LoadProfile() should fail")
			}
		})
	}

	if _, err := LoadProfile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("LoadProfile() should fail for a missing file")
	}
}
