package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"safeclient/internal/domain"
	"safeclient/internal/services/nfs"
)

var shared bool

func nfsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nfs",
		Short: "Files and directories on the launcher drive",
	}
	cmd.PersistentFlags().BoolVar(&shared, "shared", false, "use the shared tree instead of the app's private one")
	cmd.AddCommand(mkdirCmd(), lsCmd(), rmdirCmd(), touchCmd(), writeCmd(), catCmd(), rmCmd())
	return cmd
}

func mkdirCmd() *cobra.Command {
	var meta string
	cmd := &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.NFS.CreateDir(cmd.Context(), domain.CreateDirRequest{
				DirPath: args[0], Metadata: meta, IsPathShared: shared,
			})
		},
	}
	cmd.Flags().StringVar(&meta, "metadata", "", "directory metadata")
	return cmd
}

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := "/"
			if len(args) == 1 {
				p = args[0]
			}
			dir, err := wire.NFS.GetDir(cmd.Context(), nfs.Location{Path: p, Shared: shared})
			if err != nil {
				return err
			}
			printDir(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func printDir(w io.Writer, dir domain.DirResponse) {
	for _, d := range dir.SubDirectories {
		fmt.Fprintf(w, "d %10s  %s  %s/\n", "-", stamp(d.ModifiedOn), d.Name)
	}
	for _, f := range dir.Files {
		fmt.Fprintf(w, "- %10d  %s  %s\n", f.Size, stamp(f.ModifiedOn), f.Name)
	}
}

func stamp(ms int64) string { return time.UnixMilli(ms).Format("2006-01-02 15:04") }

func rmdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rmdir <path>",
		Short: "Delete a directory and everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.NFS.DeleteDir(cmd.Context(), nfs.Location{Path: args[0], Shared: shared})
		},
	}
}

func touchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "touch <path>",
		Short: "Create an empty file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.NFS.CreateFile(cmd.Context(), domain.CreateFileRequest{FilePath: args[0], IsPathShared: shared})
		},
	}
}

func writeCmd() *cobra.Command {
	var offset int64
	cmd := &cobra.Command{
		Use:   "write <path> [local-file]",
		Short: "Write a file from a local file or stdin",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 2 {
				data, err = os.ReadFile(args[1])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			return wire.NFS.WriteFile(cmd.Context(), nfs.Location{Path: args[0], Shared: shared}, data, offset)
		},
	}
	cmd.Flags().Int64Var(&offset, "offset", -1, "write at this byte offset instead of replacing the file")
	return cmd
}

func catCmd() *cobra.Command {
	var offset, length int64
	cmd := &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := wire.NFS.GetFile(cmd.Context(), nfs.Location{Path: args[0], Shared: shared}, offset, length)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(f.Body)
			return err
		},
	}
	cmd.Flags().Int64Var(&offset, "offset", 0, "first byte to read")
	cmd.Flags().Int64Var(&length, "length", 0, "bytes to read (0 = to the end)")
	return cmd
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.NFS.DeleteFile(cmd.Context(), nfs.Location{Path: args[0], Shared: shared})
		},
	}
}
