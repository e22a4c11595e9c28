package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"safeclient/internal/crypto"
	"safeclient/internal/domain"
)

func authCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Make sure the launcher has authorized this application",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(color.CyanString("→") + " Waiting for the launcher to approve " + color.YellowString(wire.Config.App.Name))
			if err := wire.Session.EnsureValid(cmd.Context()); err != nil {
				return err
			}
			sess, _ := wire.Session.Session()
			fmt.Printf("%s Authorized (session %s)\n", color.GreenString("✓"), sessionLabel(sess))
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Ask the launcher whether the saved session is still valid",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, ok := wire.Session.Session()
			if !ok {
				fmt.Println(color.YellowString("•") + " No session")
				return nil
			}
			valid, err := wire.Session.IsValid(cmd.Context())
			if err != nil {
				return err
			}
			fp := sessionLabel(sess)
			if !valid {
				fmt.Printf("%s Session %s was revoked; run %s\n", color.RedString("✗"), fp, color.YellowString("safe auth"))
				return nil
			}
			fmt.Printf("%s Session %s is valid\n", color.GreenString("✓"), fp)
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the token and forget the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Println(color.GreenString("✓") + " Logged out")
			return nil
		},
	}
}

// sessionLabel names a session by its token so nothing derived from the
// shared key is printed.
func sessionLabel(m domain.Material) string {
	return crypto.Fingerprint([]byte(m.Token))
}
