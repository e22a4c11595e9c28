package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"safeclient/internal/domain"
)

func dnsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dns",
		Short: "Long names and the services published under them",
	}
	cmd.AddCommand(namesCmd(), createNameCmd(), registerCmd(), servicesCmd(), serviceLsCmd(), serviceGetCmd())
	return cmd
}

func namesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "List the long names this application owns",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := wire.DNS.LongNames(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func createNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <long-name>",
		Short: "Claim a long name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.DNS.CreateLongName(cmd.Context(), args[0])
		},
	}
}

func registerCmd() *cobra.Command {
	var sharedHome bool
	cmd := &cobra.Command{
		Use:   "register <long-name> <service> <home-dir>",
		Short: "Publish a directory as a service, claiming the long name if needed",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.DNS.Register(cmd.Context(), domain.ServiceRequest{
				LongName:           args[0],
				ServiceName:        args[1],
				ServiceHomeDirPath: args[2],
				IsPathShared:       sharedHome,
			})
		},
	}
	cmd.Flags().BoolVar(&sharedHome, "shared", false, "home directory is in the shared tree")
	return cmd
}

func servicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "services <long-name>",
		Short: "List services under a long name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := wire.DNS.Services(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, s := range list {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

func serviceLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <long-name> <service>",
		Short: "List a published service directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := wire.DNS.ServiceDir(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			printDir(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func serviceGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <long-name> <service> <path>",
		Short: "Print a published file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := wire.DNS.File(cmd.Context(), args[0], args[1], args[2], 0, 0)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(f.Body)
			return err
		},
	}
}
