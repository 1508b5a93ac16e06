// Command ceremonyctl talks to a running ceremony portal from a terminal.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"go-ceremony-portal/internal/client"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

type globalOptions struct {
	server    string
	cachePath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "ceremonyctl",
		Short: "Command line client for the ceremony portal",
		Long: `ceremonyctl logs in to the ceremony portal, keeps the bearer token in a
local credential file and sends authenticated requests to the API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("CEREMONY_SERVER")
	if server == "" {
		server = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", server, "Portal base URL (env CEREMONY_SERVER)")
	rootCmd.PersistentFlags().StringVar(&opts.cachePath, "cache", defaultCachePath(), "Credential cache file")

	rootCmd.AddCommand(
		loginCmd(opts),
		logoutCmd(opts),
		whoamiCmd(opts),
		getCmd(opts),
		hashPasswordCmd(),
		versionCmd(),
	)

	return rootCmd
}

func defaultCachePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "ceremonyctl", "credentials.json")
}

// client opens the credential cache and builds an API client. An expired
// session prints a hint instead of navigating.
func (o *globalOptions) client(out io.Writer) (*client.Client, error) {
	cache, err := client.OpenFileCache(o.cachePath)
	if err != nil {
		return nil, err
	}

	hint := client.NavigatorFunc(func(string) {
		warn(out, "session expired, run `ceremonyctl login` again")
	})
	return client.New(o.server, cache, client.WithNavigator(hint, nil)), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ceremonyctl %s (%s)\n", version, commit)
		},
	}
}

// success prints a success message.
func success(out io.Writer, format string, args ...any) {
	fmt.Fprintf(out, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an indented detail line.
func info(out io.Writer, format string, args ...any) {
	fmt.Fprintf(out, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(out io.Writer, format string, args ...any) {
	fmt.Fprintf(out, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
