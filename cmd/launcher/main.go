package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"safeclient/internal/domain"
	"safeclient/internal/launcher"
	"safeclient/internal/logging"
)

func main() {
	var (
		addr string
		deny bool
	)
	cmd := &cobra.Command{
		Use:          "launcher",
		Short:        "Run an in-memory development launcher",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := logging.DefaultConfig("launcher", logging.ProfileRuntime)
			if _, set := os.LookupEnv(logging.EnvLogLevel); !set {
				cfg.Level = zerolog.InfoLevel
			}
			log := logging.New(cfg)

			opts := []launcher.Option{launcher.WithLogger(log)}
			if deny {
				opts = append(opts, launcher.WithApprover(func(app domain.AppIdentity, _ []domain.Permission) bool {
					log.Warn().Str("app", app.ID).Msg("denying access")
					return false
				}))
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           launcher.New(opts...),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdown)
			}()

			log.Info().Str("addr", addr).Msg("launcher listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8100", "listen address")
	cmd.Flags().BoolVar(&deny, "deny", false, "refuse every authorization request")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
