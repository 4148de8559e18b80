package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"pkt.systems/pslog"

	"github.com/wfkpk/authgate/internal/adapters/ipc/unixsock"
	"github.com/wfkpk/authgate/internal/adapters/render/accounts"
	"github.com/wfkpk/authgate/internal/application"
	"github.com/wfkpk/authgate/internal/connection"
	"github.com/wfkpk/authgate/internal/domain"
	"github.com/wfkpk/authgate/internal/ports"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".authgate"
)

type app struct {
	gateway  *application.Gateway
	manager  *connection.Manager
	peer     ports.PeerAddress
	logger   pslog.Base
	renderer func([]domain.Account, accounts.RenderOptions) (string, error)
}

func wireApp() (*app, error) {
	cfg := viper.New()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDir))
	cfg.SetEnvPrefix("AUTHGATE")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault("peer.package", "dev.wfkpk.accountsvc")
	cfg.SetDefault("peer.component", "auth")
	cfg.SetDefault("peer.action", "dev.wfkpk.accountsvc.BIND")
	cfg.SetDefault("peer.socket", "")
	cfg.SetDefault("connect.timeout", connection.DefaultConnectTimeout)
	cfg.SetDefault("log.level", "")

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	logger := newLogger(cfg.GetString("log.level"))

	peer := ports.PeerAddress{
		Package:    cfg.GetString("peer.package"),
		Component:  cfg.GetString("peer.component"),
		Action:     cfg.GetString("peer.action"),
		SocketPath: cfg.GetString("peer.socket"),
	}

	binder := unixsock.NewBinder(unixsock.WithLogger(logger))
	manager := connection.NewManager(binder, peer,
		connection.WithConnectTimeout(cfg.GetDuration("connect.timeout")),
		connection.WithLogger(logger),
	)
	gateway := application.NewGateway(manager, application.WithLogger(logger))

	return &app{
		gateway:  gateway,
		manager:  manager,
		peer:     peer,
		logger:   logger,
		renderer: accounts.Render,
	}, nil
}

// newLogger builds the CLI logger. An empty or unparsable level keeps
// logging disabled so command output stays clean.
func newLogger(level string) pslog.Base {
	if level == "" {
		return pslog.NoopLogger()
	}
	parsed, ok := pslog.ParseLevel(level)
	if !ok {
		return pslog.NoopLogger()
	}
	return pslog.NewStructured(os.Stderr).LogLevel(parsed)
}

// opTimeout bounds CLI-initiated operations. The SDK itself imposes no
// per-operation timeout; this keeps a wedged service from hanging the
// terminal forever.
const opTimeout = 30 * time.Second
