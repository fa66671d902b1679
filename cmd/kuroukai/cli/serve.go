package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Kuroukai/Kuroukai-api/internal/server"
	"github.com/Kuroukai/Kuroukai-api/internal/session"
	"github.com/Kuroukai/Kuroukai-api/internal/telemetry"
)

const banner = `
 _  __ _   _  ___  ___  _   _  _  __ _    ___
| |/ /| | | || _ \/ _ \| | | || |/ /| |  |_ _|
|   < | |_| ||   / (_) | |_| ||   < | |__ | |
|_|\_\ \___/ |_|_\\___/ \___/ |_|\_\|____|___|
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Kuroukai API server",
		Long:  "Start the HTTP server that exposes key issuance, validation, and the operator session surface.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging, insecure cookies)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	logLevel := slog.LevelInfo
	if dev {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	// 1. Open the key store
	st, err := openKeyStore()
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	defer st.Close()
	logger.Info("key store initialized", "data_dir", resolveDataDir())

	keySvc := newKeyService(st)

	// 2. Build the session store from explicit configuration
	username := viper.GetString("auth.admin_username")
	if username == "" {
		username = "admin"
	}
	password := viper.GetString("auth.admin_password")
	if password == "" {
		if !dev {
			return fmt.Errorf("auth.admin_password must be set (config file or KUROUKAI_AUTH_ADMIN_PASSWORD)")
		}
		password = "kuroukai-dev-password"
		logger.Warn("no admin password configured, using the dev fallback - do not expose this instance")
	}
	ttl := viper.GetDuration("auth.session_ttl")

	sessions := session.NewStore(session.Config{
		Username: username,
		Password: password,
		TTL:      ttl,
	})

	// 3. Telemetry heartbeat
	tracker := telemetry.New(func() telemetry.Properties {
		keyCount, _ := st.Count(context.Background())
		return telemetry.Properties{
			Version:   appVersion,
			GoVersion: runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			Keys:      keyCount,
			Sessions:  sessions.Count(),
		}
	})
	tracker.Start()
	defer tracker.Shutdown()

	// 4. HTTP server
	cfg := server.DefaultConfig()
	cfg.Host = host
	cfg.Port = port
	cfg.Dev = dev
	if origins := viper.GetStringSlice("server.cors_origins"); len(origins) > 0 {
		cfg.CORSOrigins = origins
	}
	if limit := viper.GetInt("server.login_rate_limit"); limit > 0 {
		cfg.LoginRateLimit = limit
	}
	if timeout := viper.GetDuration("server.shutdown_timeout"); timeout > 0 {
		cfg.ShutdownTimeout = timeout
	}

	srv := server.New(cfg, keySvc, sessions, logger)

	logger.Info("starting server",
		"host", host,
		"port", port,
		"dev", dev,
		"session_ttl", sessions.TTL().String(),
	)
	start := time.Now()
	err = srv.ListenAndServe()
	logger.Info("server stopped", "uptime", time.Since(start).String())
	return err
}
