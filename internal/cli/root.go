package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "spacegate",
	Short: "Spacegate is a shared-space service with moderated admission.",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "internal/config/config.yaml", "path to config file")
}
