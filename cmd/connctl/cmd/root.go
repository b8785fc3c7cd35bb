package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.pilab.hu/connections/config"
	"go.pilab.hu/connections/domain"
	"go.pilab.hu/connections/log"
	"go.pilab.hu/connections/mongodb"
)

const AppName = "connctl"

// OpenFunc opens the connection registry described by cfg and returns a function that
// releases it.
type OpenFunc func(ctx context.Context, cfg *config.Config) (domain.UsersConnectionRepository, func(context.Context) error, error)

type app struct {
	open    OpenFunc
	cfgFile string

	users domain.UsersConnectionRepository
	close func(context.Context) error
}

// NewRootCmd builds the connctl command tree on top of open.
func NewRootCmd(open OpenFunc) *cobra.Command {
	a := &app{open: open}

	root := &cobra.Command{
		Use:               AppName,
		Short:             "connctl inspects and bulk loads the connection registry",
		Long:              `A command-line tool that works directly on the durable connection store: seed ranked connections, list the connections of a user and find the users holding a remote identity.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.connect,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.disconnect(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "",
		"config file (default is connections.yaml in ., $HOME/.connections or /etc/connections)")

	root.AddCommand(newSeedCmd(a), newListCmd(a), newWhoisCmd(a))
	return root
}

// Execute runs connctl against the configured MongoDB store.
func Execute() {
	if err := NewRootCmd(OpenStore).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) connect(cmd *cobra.Command, _ []string) error {
	var (
		cfg *config.Config
		err error
	)
	if a.cfgFile != "" {
		cfg, err = config.LoadConfigFile(a.cfgFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}

	if _, err := log.Setup(cfg.LogLevel, cfg.LogPretty); err != nil {
		return err
	}

	a.users, a.close, err = a.open(cmd.Context(), cfg)
	return err
}

func (a *app) disconnect(ctx context.Context) error {
	if a.close == nil {
		return nil
	}
	return a.close(ctx)
}

// OpenStore connects to the MongoDB store of cfg. The in-memory backend lives inside the
// server process and cannot be reached from here.
func OpenStore(ctx context.Context, cfg *config.Config) (domain.UsersConnectionRepository, func(context.Context) error, error) {
	if cfg.StoreBackend != config.BackendMongoDB {
		return nil, nil, errors.New("connctl needs store_backend: mongodb")
	}

	enc, err := cfg.Encryptor()
	if err != nil {
		return nil, nil, err
	}

	client, db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, nil, err
	}

	users, err := mongodb.NewUsersConnectionRepositoryMongo(ctx, db,
		mongodb.WithCollectionPrefix(cfg.MongoCollectionPrefix),
		mongodb.WithEncryptor(enc),
	)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return users, client.Disconnect, nil
}
