package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/govdocs-network/govdocs-demo/internal/config"
	"github.com/govdocs-network/govdocs-demo/internal/ipfs"
	"github.com/govdocs-network/govdocs-demo/internal/ledger"
	"github.com/govdocs-network/govdocs-demo/internal/logger"
	"github.com/govdocs-network/govdocs-demo/internal/registry"
	"github.com/govdocs-network/govdocs-demo/internal/server"
	"github.com/govdocs-network/govdocs-demo/internal/version"
	"github.com/govdocs-network/govdocs-demo/internal/wallet"
)

//	@title			govdocs-server
//	@description	govdocs-server is the HTTP API for a government document registry.
//	@description	Document records are anchored on a Hyperledger Fabric channel and
//	@description	document content is stored on IPFS, addressed by CID.
//	@description
//	@description	## Common Error Responses
//	@description	All endpoints may return:
//	@description	- `413` Request body exceeds size limit
//	@description	- `429` Rate limit exceeded
//	@description	- `500` Internal server error
//	@description
//	@description	Individual endpoints document their specific business logic errors.
//	@description
//	@description	## Request Limits
//	@description	All endpoints are protected by:
//	@description	- **Rate limiting**: Configurable requests per second (see env vars) - default 100 rps (set to 0 to disable)
//	@description	- **Request size limits**: Configurable (see env vars) - default 1MB, 50MB for uploads
//	@description
//	@description	Check the X-Max-Request-Size response header for the configured limit.
//	@description
//	@description	## Authentication & Authorization
//	@description
//	@description	The API itself does not require credentials to be sent with the request.
//	@description	Ledger transactions are signed with identities from the server's wallet;
//	@description	callers may select an identity with the identityName field or identity
//	@description	query parameter. Identities are issued by the network's certificate
//	@description	authority (see the govdocs-admin CLI).
//	@description
//	@license.name	MIT

//	@servers.url			http://localhost:8080
//	@servers.description	Development server

//	@accept		json
//	@produce	json

//	@tag.name			Documents
//	@tag.description	Document registry endpoints

//	@tag.name			Common
//	@tag.description	Server API endpoints (health, version)

func main() {
	cmd := &cobra.Command{
		Use:   "govdocs-server",
		Short: "Document registry API server",
		Long:  `govdocs-server exposes the document registry HTTP API backed by Hyperledger Fabric and IPFS`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewServerConfig()
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		os.Exit(1)
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("CONNECTION_PROFILE_PATH", cfg.ConnectionProfilePath),
		slog.String("WALLET_PATH", cfg.WalletPath),
		slog.String("DEFAULT_IDENTITY", cfg.DefaultIdentity),
		slog.String("IPFS_MODE", cfg.IPFSMode),
	)

	w, err := wallet.New(cfg.WalletPath)
	if err != nil {
		appLogger.Error("Failed to open wallet", slog.String("error", err.Error()))
		os.Exit(1)
	}

	profile, err := ledger.LoadProfile(cfg.ConnectionProfilePath)
	if err != nil {
		appLogger.Error("Failed to load connection profile", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger.Info("connection profile loaded",
		slog.String("msp_id", profile.MSPID),
		slog.String("channel", profile.Channel),
		slog.String("chaincode", profile.Chaincode),
		slog.String("peer", profile.Peer.Endpoint),
	)

	gateway, err := ledger.Connect(profile, w, cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to set up the gateway connection", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer gateway.Close()

	store, err := ipfs.New(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to create IPFS client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	service := registry.NewService(gateway, store, cfg.DefaultIdentity, appLogger)

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(cfg, appLogger, service)

	if err := srv.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}
