package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marshallshelly/pebble-shop/internal/config"
)

var (
	// Global flags
	cfg        = config.Default()
	envFile    string
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "shop",
	Short: "Pebble Shop - a blog and product store on PostgreSQL",
	Long: `Pebble Shop serves a blog with comments, a product store with a session cart,
user registration and an admin JSON API.

Settings come from built-in defaults, a .env file, SHOP_* environment
variables and DATABASE_URL, then command-line flags, in that order.`,
	Version:       "0.4.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.Load(&cfg, cmd.Flags(), envFile)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cfg.BindFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Env file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}
