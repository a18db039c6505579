package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/estatement/internal/auth"
	"github.com/cleared-dev/estatement/internal/export"
)

func newUserCommand(root *rootOptions) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "API user helpers",
	}
	userCmd.AddCommand(
		newUserHashCommand(),
		newUserProfileCommand(root),
		newUserPasswdCommand(root),
		newUserRegisterCommand(root),
	)
	return userCmd
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newUserHashCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash [password]",
		Short: "Print the bcrypt hash of a password for auth.users",
		Long: "Print the bcrypt hash of a password for auth.users.\n" +
			"Without an argument the password is read from the first line of stdin.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if len(args) > 0 {
				password = args[0]
			} else {
				line, err := readLine(bufio.NewReader(cmd.InOrStdin()))
				if err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
				password = line
			}
			return runUserHash(password)
		},
	}
	return cmd
}

func runUserHash(password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func newUserProfileCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the user signed in with --token on a remote server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := root.runtime()
			if err != nil {
				return err
			}
			c, ok := root.remote(rt)
			if !ok {
				return errNoServer
			}
			p, err := c.Profile(cmd.Context(), root.v.GetString(keyToken))
			if err != nil {
				return err
			}
			updated := ""
			if !p.UpdatedAt.IsZero() {
				updated = p.UpdatedAt.Local().Format(export.DateTimeLayout)
			}
			fmt.Println(renderTable(
				[]string{"User", "Email", "Roles", "Updated"},
				[][]string{{p.Username, p.Email, strings.Join(p.Roles, ", "), updated}},
			))
			return nil
		},
	}
}

func newUserPasswdCommand(root *rootOptions) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change a user's password",
		Long: "Change a user's password.\n" +
			"The current and the new password are read from the first two lines of stdin.\n" +
			"With --server the signed-in user (--token) is changed; otherwise --username\n" +
			"names a user in the local config file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := root.runtime()
			if err != nil {
				return err
			}
			return runUserPasswd(cmd.Context(), root, rt, username, cmd.InOrStdin())
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "local user to change")

	return cmd
}

func runUserPasswd(ctx context.Context, root *rootOptions, rt *runtime, username string, in io.Reader) error {
	r := bufio.NewReader(in)
	current, err := readLine(r)
	if err != nil {
		return fmt.Errorf("reading current password: %w", err)
	}
	next, err := readLine(r)
	if err != nil {
		return fmt.Errorf("reading new password: %w", err)
	}

	if c, ok := root.remote(rt); ok {
		if err := c.ChangePassword(ctx, root.v.GetString(keyToken), current, next); err != nil {
			return err
		}
		fmt.Println("Password updated.")
		return nil
	}

	if username == "" {
		return errors.New("--username is required without --server")
	}
	users := auth.NewUserStore(rt.cfg.Auth.Users, rt.cfgPath)
	if err := users.ChangePassword(username, current, next); err != nil {
		return err
	}
	fmt.Printf("Password of %s updated in %s\n", username, rt.cfgPath)
	return nil
}

func newUserRegisterCommand(root *rootOptions) *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on a remote server that allows registration",
		Long: "Create an account on a remote server that allows registration.\n" +
			"The password is read from ESTATEMENT_PASSWORD.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := root.runtime()
			if err != nil {
				return err
			}
			c, ok := root.remote(rt)
			if !ok {
				return errNoServer
			}
			password := os.Getenv("ESTATEMENT_PASSWORD")
			if password == "" {
				return errors.New("ESTATEMENT_PASSWORD is not set")
			}
			if err := c.Register(cmd.Context(), username, email, password); err != nil {
				return err
			}
			fmt.Printf("Registered %s\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}
