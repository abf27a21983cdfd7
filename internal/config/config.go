package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

// Environment variables with defaults
type ServerEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	LogLevel              string        `env:"LOG_LEVEL,default=debug"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=120s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`
	MaxRequestSize        int64         `env:"MAX_REQUEST_SIZE,default=1048576"`
	MaxUploadSize         int64         `env:"MAX_UPLOAD_SIZE,default=52428800"`

	// fabric settings
	ConnectionProfilePath string        `env:"CONNECTION_PROFILE_PATH,default=connection-org1.json"`
	WalletPath            string        `env:"WALLET_PATH,default=wallet"`
	DefaultIdentity       string        `env:"DEFAULT_IDENTITY,default=appUser2"`
	AdminEnrollmentID     string        `env:"ADMIN_ENROLLMENT_ID,default=admin"`
	AdminEnrollmentSecret string        `env:"ADMIN_ENROLLMENT_SECRET,default=adminpw"`
	IdentityAffiliation   string        `env:"IDENTITY_AFFILIATION,default=org1.department1"`
	GatewayDialTimeout    time.Duration `env:"GATEWAY_DIAL_TIMEOUT,default=10s"`
	EvaluateTimeout       time.Duration `env:"EVALUATE_TIMEOUT,default=5s"`
	EndorseTimeout        time.Duration `env:"ENDORSE_TIMEOUT,default=15s"`
	SubmitTimeout         time.Duration `env:"SUBMIT_TIMEOUT,default=5s"`
	CommitStatusTimeout   time.Duration `env:"COMMIT_STATUS_TIMEOUT,default=60s"`
	CARequestTimeout      time.Duration `env:"CA_REQUEST_TIMEOUT,default=30s"`

	// ipfs settings
	IPFSMode            string        `env:"IPFS_MODE,default=local"`
	IPFSAPIURL          string        `env:"IPFS_API_URL,default=http://127.0.0.1:5001"`
	InfuraAPIURL        string        `env:"INFURA_API_URL,default=https://ipfs.infura.io:5001"`
	InfuraProjectID     string        `env:"INFURA_PROJECT_ID"`
	InfuraProjectSecret string        `env:"INFURA_PROJECT_SECRET"`
	IPFSRequestTimeout  time.Duration `env:"IPFS_REQUEST_TIMEOUT,default=60s"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

// NewServerConfig loads environment variables and returns a ServerEnvironment struct that contains the values
func NewServerConfig() (*ServerEnvironment, error) {
	var cfg ServerEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateConfig checks for required env variables
func validateConfig(cfg *ServerEnvironment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}

	switch cfg.IPFSMode {
	case "local":
	case "infura":
		if cfg.InfuraProjectID == "" || cfg.InfuraProjectSecret == "" {
			return fmt.Errorf("INFURA_PROJECT_ID and INFURA_PROJECT_SECRET must be set when IPFS_MODE=infura")
		}
	default:
		return fmt.Errorf("invalid IPFS_MODE: %s (must be 'local' or 'infura')", cfg.IPFSMode)
	}

	if cfg.MaxRequestSize < 1 {
		return fmt.Errorf("MAX_REQUEST_SIZE must be at least 1 byte")
	}
	if cfg.MaxUploadSize < 1 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be at least 1 byte")
	}
	if cfg.DefaultIdentity == "" {
		return fmt.Errorf("DEFAULT_IDENTITY must not be empty")
	}

	return nil
}
