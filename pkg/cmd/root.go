// Package cmd contains the senderinfo command line.
package cmd

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/gokaycavdar/go-senderinfo/pkg/config"
	"github.com/gokaycavdar/go-senderinfo/pkg/engine"
	"github.com/gokaycavdar/go-senderinfo/pkg/geoip"
	"github.com/gokaycavdar/go-senderinfo/pkg/logging"
	"github.com/gokaycavdar/go-senderinfo/pkg/server"
	"github.com/gokaycavdar/go-senderinfo/pkg/storage"
)

var stdOutWriter io.Writer = os.Stdout

// CreateCommand creates the root command with all subcommands.
func CreateCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "senderinfo",
		Short: "Derives locale-aware sender metadata (client, address, location) for inbound connections.",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}
	command.SetOut(stdOutWriter)
	command.PersistentFlags().AddFlagSet(config.FlagSet())
	command.AddCommand(createServerCommand(), createLookupCommand(), createPrintConfigCommand())
	return command
}

// Execute runs the command line with os.Args.
func Execute() error {
	return CreateCommand().Execute()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logging.Configure(cfg.Verbosity, cfg.LoggerFormat); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openLocator opens the configured GeoIP database. It returns a nil locator
// when none is configured.
func openLocator(cfg *config.Config) (*geoip.Service, error) {
	if cfg.GeoIP.CityDB == "" {
		logging.Log().Warn("No GeoIP database configured, location lookups are disabled")
		return nil, nil
	}
	return geoip.NewService(cfg.GeoIP.CityDB)
}

func createServerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Starts the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			service, err := openLocator(cfg)
			if err != nil {
				return err
			}
			var locator engine.Locator
			if service != nil {
				defer service.Close()
				wrapper := geoip.NewPrometheusWrapper(service)
				if err := registerCollectors(wrapper.Collectors()...); err != nil {
					return err
				}
				locator = wrapper
			}

			store, closeStore := newSessionStore(cfg)
			defer closeStore()

			srv := server.New(engine.New(locator), store, server.Options{TrustProxy: cfg.HTTP.TrustProxy})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, cfg.Address)
		},
	}
}

func newSessionStore(cfg *config.Config) (storage.SessionStore, func()) {
	if cfg.Storage.Redis.Address == "" {
		return storage.NewMemoryStore(), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Storage.Redis.Address,
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	})
	logging.Log().WithField("address", cfg.Storage.Redis.Address).Info("Storing sessions in Redis")
	return storage.NewRedisStore(client, cfg.Storage.Redis.Prefix, cfg.Storage.TTL), func() { _ = client.Close() }
}

func registerCollectors(collectors ...prometheus.Collector) error {
	for _, c := range collectors {
		err := prometheus.Register(c)
		if err != nil && err.Error() != (prometheus.AlreadyRegisteredError{}).Error() {
			return err
		}
	}
	return nil
}

func createLookupCommand() *cobra.Command {
	var ip, acceptLanguage, userAgent string
	command := &cobra.Command{
		Use:   "lookup",
		Short: "Derives the sender metadata for an address and prints it as JSON",
		Example: "  senderinfo lookup --geoip.citydb GeoLite2-City.mmdb --ip 81.2.69.142 " +
			"--accept-language 'de-DE,en;q=0.5'",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			service, err := openLocator(cfg)
			if err != nil {
				return err
			}
			var locator engine.Locator
			if service != nil {
				defer service.Close()
				locator = service
			}

			headers := http.Header{}
			if acceptLanguage != "" {
				headers.Set(engine.HeaderAcceptLanguage, acceptLanguage)
			}
			if userAgent != "" {
				headers.Set(engine.HeaderUserAgent, userAgent)
			}

			sender := engine.New(locator).Derive(engine.HeaderSource{Headers: headers, Addr: ip})
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(sender)
		},
	}
	command.Flags().StringVar(&ip, "ip", "", "Remote address of the sender.")
	command.Flags().StringVar(&acceptLanguage, "accept-language", "", "Accept-Language header of the sender.")
	command.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent header of the sender.")
	return command
}

func createPrintConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Prints the current config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			cfg.Storage.Redis.Password = redact(cfg.Storage.Redis.Password)
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		},
	}
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "(redacted)"
}
