package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harborlight/siteshell/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔═╗┬┌┬┐┌─┐╔═╗┬ ┬┌─┐┬  ┬
  ╚═╗│ │ ├┤ ╚═╗├─┤├┤ │  │
  ╚═╝┴ ┴ └─┘╚═╝┴ ┴└─┘┴─┘┴─┘
`

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "siteshell",
		Short: "Server-driven application shell for content sites",
		Long: `siteshell serves a content site as a single-page application.

The server owns routing, module loading, failure isolation and scroll
behaviour. Browsers run a thin client that mounts regions pushed over a
websocket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./siteshell.yaml)")

	cmd.AddCommand(
		serveCmd(&configPath),
		routesCmd(&configPath),
		checkCmd(&configPath),
		versionCmd(),
	)
	return cmd
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
