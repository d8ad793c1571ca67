// Command tela runs the demo application and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	var envFiles []string

	rootCmd := &cobra.Command{
		Use:   "tela",
		Short: "Server-rendered user directory built on the tela framework",
		Long: `Tela serves a small user directory: search, login and CSV export
over the t_utilisateur and t_droit tables.

Configuration is read from the environment. Files given with --env are
loaded first and never override variables already set.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", []string{".env"}, "dotenv files to load")

	rootCmd.AddCommand(
		serveCmd(&envFiles),
		migrateCmd(&envFiles),
		logsCmd(&envFiles),
		usersCmd(&envFiles),
		versionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("tela %s (%s)\n", version, commit)
		},
	}
}
