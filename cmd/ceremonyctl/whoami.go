package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"go-ceremony-portal/internal/client"
)

func whoamiCmd(opts *globalOptions) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in principal",
		Long: `Show what the stored token says about the current principal, then ask
the server. With --offline only the local token is read; it is not verified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			c, err := opts.client(out)
			if err != nil {
				return err
			}

			raw, ok := c.Cache().Get(client.KeyToken)
			if !ok || raw == "" {
				return errors.New("not logged in")
			}
			tokenInfo, err := client.DecodeToken(raw)
			if err != nil {
				return err
			}

			info(out, "Name:    %s", tokenInfo.Name)
			info(out, "Kind:    %s", tokenInfo.Kind)
			info(out, "Role:    %s", tokenInfo.Role)
			info(out, "Expires: %s", tokenInfo.ExpiresAt.Local().Format(time.RFC1123))
			if tokenInfo.Expired(time.Now()) {
				warn(out, "token has expired")
			}
			if offline {
				return nil
			}

			body, err := c.Request(cmd.Context(), http.MethodGet, "/api/v1/auth/me")
			if err != nil {
				return err
			}
			return printBody(out, body)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Only decode the stored token")

	return cmd
}

func getCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Send an authenticated GET request",
		Example: `  ceremonyctl get /api/v1/diplomas
  ceremonyctl get /api/v1/me/diplomas`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			path := args[0]
			if !strings.HasPrefix(path, "/") && !strings.Contains(path, "://") {
				path = "/api/v1/" + path
			}
			body, err := c.Request(cmd.Context(), http.MethodGet, path)
			if err != nil {
				return err
			}
			return printBody(cmd.OutOrStdout(), body)
		},
	}
}

func printBody(out io.Writer, body *client.Body) error {
	switch body.Kind {
	case client.BodyJSON:
		var buf bytes.Buffer
		if err := json.Indent(&buf, body.JSON, "", "  "); err != nil {
			_, err = out.Write(body.JSON)
			return err
		}
		buf.WriteByte('\n')
		_, err := out.Write(buf.Bytes())
		return err
	case client.BodyText:
		_, err := fmt.Fprintln(out, body.Text)
		return err
	case client.BodyBinary:
		_, err := out.Write(body.Bytes)
		return err
	default:
		_, err := fmt.Fprintf(out, "%d\n", body.Status)
		return err
	}
}
