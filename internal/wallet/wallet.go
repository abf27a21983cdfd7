// Package wallet implements the filesystem credential store.
//
// One identity is stored per file (<name>.id) as a JSON document holding the
// enrollment certificate and private key in PEM form, together with the MSP
// membership id. Records are immutable once written and are never deleted by
// the application (removing an identity is a manual operation).
package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrIdentityNotFound is returned by Get when no record exists for the name.
	ErrIdentityNotFound = errors.New("wallet: identity not found")

	// ErrDuplicateIdentity is returned by Put when a record already exists.
	ErrDuplicateIdentity = errors.New("wallet: identity already exists")
)

// TypeX509 is the only identity kind currently stored.
const TypeX509 = "X.509"

// Identity is one credential record: an enrollment certificate and its
// private key (both PEM), tagged with the issuing organization's MSP id.
type Identity struct {
	Name        string `json:"-"`
	Certificate []byte `json:"certificate"`
	PrivateKey  []byte `json:"privateKey"`
	MSPID       string `json:"mspId"`
	Type        string `json:"type"`
}

// Wallet is a directory of identity records.
//
// Reads are safe to run concurrently. Concurrent first-writes of the same
// name are not linearized: Exists-then-Put is a best-effort guard and Put
// itself refuses to overwrite, but two racing writers may still interleave
// between the check and the write. Last writer loses (Put fails), which is
// acceptable for the single-operator provisioning flows this store serves.
type Wallet struct {
	dir string
}

// New opens (creating if needed) the wallet directory.
func New(dir string) (*Wallet, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("wallet: failed to create directory %s: %w", dir, err)
	}
	return &Wallet{dir: dir}, nil
}

// Path returns the wallet directory.
func (w *Wallet) Path() string {
	return w.dir
}

// Get returns the identity stored under name, or ErrIdentityNotFound.
func (w *Wallet) Get(name string) (*Identity, error) {
	data, err := os.ReadFile(w.recordPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrIdentityNotFound, name)
		}
		return nil, fmt.Errorf("wallet: failed to read identity %q: %w", name, err)
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("wallet: corrupt identity record %q: %w", name, err)
	}
	id.Name = name
	return &id, nil
}

// Exists reports whether an identity record is present for name.
func (w *Wallet) Exists(name string) bool {
	_, err := os.Stat(w.recordPath(name))
	return err == nil
}

// Put stores a new identity record. The write is insert-if-absent: creating
// the record file with O_EXCL means an existing record is never overwritten,
// and the second of two racing writers gets ErrDuplicateIdentity.
func (w *Wallet) Put(name string, id *Identity) error {
	if name == "" {
		return fmt.Errorf("wallet: identity name must not be empty")
	}
	if id.Type == "" {
		id.Type = TypeX509
	}

	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return fmt.Errorf("wallet: failed to encode identity %q: %w", name, err)
	}

	f, err := os.OpenFile(w.recordPath(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %q", ErrDuplicateIdentity, name)
		}
		return fmt.Errorf("wallet: failed to create identity record %q: %w", name, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("wallet: failed to write identity record %q: %w", name, err)
	}
	return f.Close()
}

// List returns the names of all stored identities.
func (w *Wallet) List() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("wallet: failed to read directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), recordSuffix))
	}
	return names, nil
}

const recordSuffix = ".id"

func (w *Wallet) recordPath(name string) string {
	return filepath.Join(w.dir, name+recordSuffix)
}
