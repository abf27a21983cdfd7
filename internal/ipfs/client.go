// Package ipfs implements the content-addressed storage client.
//
// Two backends are supported, selected by configuration and transparent to
// callers: the HTTP API of a locally reachable node, or an authenticated
// remote gateway (Infura-style) requiring project credentials supplied out of
// band. The daemon derives the content address from the bytes it receives;
// this client performs no hashing of its own and only checks that what came
// back is a well-formed CID.
package ipfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ipfs/go-cid"
	shell "github.com/ipfs/go-ipfs-api"

	"github.com/govdocs-network/govdocs-demo/internal/config"
)

var (
	// ErrStorageUnavailable is returned when the storage node or gateway
	// cannot be reached.
	ErrStorageUnavailable = errors.New("ipfs: storage unavailable")

	// ErrAuthentication is returned when the remote gateway rejects the
	// configured project credentials.
	ErrAuthentication = errors.New("ipfs: authentication rejected")

	// ErrNotFound is returned by Get when no content exists for the address.
	ErrNotFound = errors.New("ipfs: content not found")
)

// Client stores and retrieves immutable blobs by content address.
type Client struct {
	sh     *shell.Shell
	logger *slog.Logger
}

// New selects the backend from cfg.IPFSMode ("local" or "infura").
func New(cfg *config.ServerEnvironment, logger *slog.Logger) (*Client, error) {
	var sh *shell.Shell

	switch cfg.IPFSMode {
	case "infura":
		if cfg.InfuraProjectID == "" || cfg.InfuraProjectSecret == "" {
			return nil, fmt.Errorf("ipfs: INFURA_PROJECT_ID and INFURA_PROJECT_SECRET must be set when IPFS_MODE=infura")
		}
		httpClient := &http.Client{
			Transport: &basicAuthTransport{
				base:      http.DefaultTransport,
				projectID: cfg.InfuraProjectID,
				secret:    cfg.InfuraProjectSecret,
			},
		}
		sh = shell.NewShellWithClient(cfg.InfuraAPIURL, httpClient)
	default:
		sh = shell.NewShell(cfg.IPFSAPIURL)
	}

	sh.SetTimeout(cfg.IPFSRequestTimeout)

	return &Client{sh: sh, logger: logger}, nil
}

// Put writes data to the store and returns the content address derived by
// the storage network. Writing identical bytes twice returns the same
// address. displayName is used for logging only; it does not affect the
// address.
func (c *Client) Put(ctx context.Context, data []byte, displayName string) (cid.Cid, error) {
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}

	hash, err := c.sh.Add(bytes.NewReader(data), shell.Pin(true))
	if err != nil {
		return cid.Undef, classifyTransportError(err)
	}

	id, err := cid.Decode(hash)
	if err != nil {
		return cid.Undef, fmt.Errorf("ipfs: storage returned a malformed content address %q: %w", hash, err)
	}

	c.logger.Debug("stored content blob",
		slog.String("cid", id.String()),
		slog.String("name", displayName),
		slog.Int("size", len(data)),
	)
	return id, nil
}

// Get retrieves the blob stored under id.
func (c *Client) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !id.Defined() {
		return nil, fmt.Errorf("%w: undefined content address", ErrNotFound)
	}

	rc, err := c.sh.Cat(id.String())
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, classifyTransportError(err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	return data, nil
}

// basicAuthTransport injects the remote gateway's project credentials.
type basicAuthTransport struct {
	base      http.RoundTripper
	projectID string
	secret    string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.SetBasicAuth(t.projectID, t.secret)
	return t.base.RoundTrip(clone)
}

// classifyTransportError distinguishes credential rejection from an
// unreachable or misbehaving backend.
func classifyTransportError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "forbidden") {
		return fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

// isNotFound matches the daemon's responses for absent content. A lookup
// deadline counts: content addressing cannot prove absence, only failure to
// locate within the timeout.
func isNotFound(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no link named")
}
