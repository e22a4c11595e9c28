package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"safeclient/internal/app"
	"safeclient/internal/domain"
	"safeclient/internal/logging"
)

var (
	cfgPath string
	verbose bool

	wire *app.Wire
	// restored is false when a saved snapshot could not be opened; it is
	// then left on disk untouched.
	restored bool
)

func Execute() error {
	root := &cobra.Command{
		Use:           "safe",
		Short:         "Talk to the local launcher over an authorized, encrypted session",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd, cfgPath)
			if err != nil {
				return err
			}

			logCfg := logging.DefaultConfig("safe", logging.ProfileRuntime)
			if lvl, ok := logging.ParseLevel(cfg.LogLevel); ok {
				logCfg.Level = lvl
			}
			if verbose {
				logCfg.Level = zerolog.DebugLevel
			}
			log := logging.New(logCfg)

			wire, err = app.NewWire(cfg, log)
			if err != nil {
				return err
			}
			switch err := wire.Restore(); {
			case err == nil:
				restored = true
			case errors.Is(err, domain.ErrConfig):
				log.Warn().Err(err).Msg("ignoring saved session")
			default:
				return err
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wire == nil || !restored {
				return nil
			}
			return wire.Persist()
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default <user config dir>/safeclient/safe.yaml or ./safe.yaml)")
	root.PersistentFlags().String("launcher", app.DefaultLauncherURL, "launcher base URL")
	root.PersistentFlags().String("snapshot", "", "session snapshot file")
	root.PersistentFlags().StringP("passphrase", "p", "", "passphrase sealing the snapshot file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(authCmd(), statusCmd(), logoutCmd(), nfsCmd(), dnsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := root.ExecuteContext(ctx)
	if err != nil {
		color.New(color.FgRed).Fprint(os.Stderr, "✗ ")
		os.Stderr.WriteString(err.Error() + "\n")
	}
	return err
}
