package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/MarcoPoloResearchLab/notesync/internal/auth"
	"github.com/MarcoPoloResearchLab/notesync/internal/config"
	"github.com/MarcoPoloResearchLab/notesync/internal/logging"
	"github.com/MarcoPoloResearchLab/notesync/internal/registry"
	"github.com/MarcoPoloResearchLab/notesync/internal/server"
	"github.com/MarcoPoloResearchLab/notesync/internal/snapshot"
	syncpkg "github.com/MarcoPoloResearchLab/notesync/internal/sync"
	"github.com/MarcoPoloResearchLab/notesync/internal/transport"
)

var (
	cfgFile     string
	forceResync bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "notesync",
		Short: "Note synchronization client and server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization pass against the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context())
		},
	}
	syncCmd.Flags().BoolVar(&forceResync, "resync", false, "Discard local state and pull everything")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the note server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)
	rootCmd.AddCommand(syncCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("server-url", defaults.GetString("server.url"), "Base URL of the note server")
	cmd.PersistentFlags().String("token-url", "", "Token endpoint (defaults to <server-url>/auth/token)")
	cmd.PersistentFlags().String("device-id", defaults.GetString("device.id"), "Device identifier presented on token exchange")
	cmd.PersistentFlags().String("snapshot-path", defaults.GetString("snapshot.path"), "SQLite snapshot path")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("token.ttl_minutes"), "Device token TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("master-secret", "", "Shared master secret (overrides env)")
	cmd.PersistentFlags().String("signing-secret", "", "JWT signing secret (overrides env)")

	bindFlag(cmd, "server.url", "server-url")
	bindFlag(cmd, "auth.token_url", "token-url")
	bindFlag(cmd, "device.id", "device-id")
	bindFlag(cmd, "snapshot.path", "snapshot-path")
	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "token.ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.master_secret", "master-secret")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runSync(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if err := appConfig.ValidateClient(); err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, err := snapshot.Open(appConfig.SnapshotPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	tokenSource, err := auth.NewDeviceTokenSource(auth.ExchangeConfig{
		TokenURL:     appConfig.TokenURL,
		DeviceID:     appConfig.DeviceID,
		MasterSecret: appConfig.MasterSecret,
	})
	if err != nil {
		return err
	}

	client, err := transport.NewClient(transport.ClientConfig{
		BaseURL:     appConfig.ServerURL,
		TokenSource: tokenSource,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	engine, err := syncpkg.NewEngine(syncpkg.EngineConfig{
		Transport: client,
		Nodes:     registry.NewNodeRegistry(logger),
		Labels:    registry.NewLabelRegistry(logger),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	if !forceResync {
		saved, ok, err := store.Load()
		if err != nil {
			return err
		}
		if ok {
			if err := engine.Restore(saved); err != nil {
				return err
			}
		}
	}

	if err := engine.Sync(ctx, forceResync); err != nil {
		if errors.Is(err, syncpkg.ErrResyncRequired) {
			logger.Warn("server requested full resync, retrying from scratch")
			if retryErr := engine.Sync(ctx, true); retryErr != nil {
				return retryErr
			}
		} else {
			return err
		}
	}

	if err := store.Save(engine.Dump()); err != nil {
		return err
	}

	logger.Info("synchronized",
		zap.String("version", engine.Version()),
		zap.Int("nodes", engine.Nodes().Len()))
	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if err := appConfig.ValidateServer(); err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	tokenManager := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        "notesync-server",
		Audience:      "notesync-client",
		TokenTTL:      appConfig.TokenTTL,
	})

	handler, err := server.NewHTTPHandler(server.Dependencies{
		TokenManager: tokenManager,
		Store:        server.NewStore(server.StoreConfig{Logger: logger}),
		MasterSecret: appConfig.MasterSecret,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
