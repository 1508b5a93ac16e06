package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"go-ceremony-portal/internal/client"
	"go-ceremony-portal/internal/model"
)

func loginCmd(opts *globalOptions) *cobra.Command {
	var (
		graduate bool
		password string
	)

	cmd := &cobra.Command{
		Use:   "login <username|student-id>",
		Short: "Log in and store the token locally",
		Long: `Log in as a staff member, or with --graduate as a graduate using the
student ID and citizen ID or passport number. The password is read from
standard input when --password is not given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if password == "" {
				var err error
				if password, err = readSecret(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			c, err := opts.client(out)
			if err != nil {
				return err
			}
			session := client.NewSession(c)
			defer session.Close()

			var resp model.LoginResponse
			if graduate {
				resp, err = session.LoginGraduate(cmd.Context(), args[0], password)
			} else {
				resp, err = session.LoginStaff(cmd.Context(), args[0], password)
			}
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			success(out, "Logged in as %s", resp.User.Username)
			info(out, "Role:    %s", resp.User.Role)
			info(out, "Expires: %s", resp.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}

	cmd.Flags().BoolVar(&graduate, "graduate", false, "Log in as a graduate")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password, or citizen ID / passport number with --graduate")

	return cmd
}

func readSecret(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", errors.New("password is required")
	}
	return secret, nil
}

func logoutCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored token and forget it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			session := client.NewSession(c)
			defer session.Close()

			if err := session.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			success(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
