package cli

// wiring.go assembles the component stack shared by the subcommands.

import (
	"github.com/govdocs-network/govdocs-demo/internal/ca"
	"github.com/govdocs-network/govdocs-demo/internal/ipfs"
	"github.com/govdocs-network/govdocs-demo/internal/ledger"
	"github.com/govdocs-network/govdocs-demo/internal/registry"
	"github.com/govdocs-network/govdocs-demo/internal/wallet"
)

func newCAClient() (*ca.Client, error) {
	profile, err := ledger.LoadProfile(cfg.ConnectionProfilePath)
	if err != nil {
		return nil, err
	}
	w, err := wallet.New(cfg.WalletPath)
	if err != nil {
		return nil, err
	}
	return ca.New(profile, w, cfg, appLogger)
}

// newRegistryService builds the full orchestrator stack. The returned cleanup
// closes the shared gRPC connection.
func newRegistryService() (*registry.Service, func(), error) {
	profile, err := ledger.LoadProfile(cfg.ConnectionProfilePath)
	if err != nil {
		return nil, nil, err
	}
	w, err := wallet.New(cfg.WalletPath)
	if err != nil {
		return nil, nil, err
	}
	gateway, err := ledger.Connect(profile, w, cfg, appLogger)
	if err != nil {
		return nil, nil, err
	}
	store, err := ipfs.New(cfg, appLogger)
	if err != nil {
		gateway.Close()
		return nil, nil, err
	}

	svc := registry.NewService(gateway, store, cfg.DefaultIdentity, appLogger)
	return svc, func() { gateway.Close() }, nil
}
