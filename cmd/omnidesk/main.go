// Command omnidesk runs the omnichannel conversation engine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/omnidesk/omnidesk/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:           "omnidesk",
		Short:         "Omnichannel identity resolution and conversation routing engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "path to the TOML config file (defaults to $CONFIG_PATH)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("omnidesk %s\n", version.GetInfo())
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func configPath(cmd *cobra.Command) string {
	if path, err := cmd.Flags().GetString("config"); err == nil && path != "" {
		return path
	}
	return os.Getenv("CONFIG_PATH")
}
