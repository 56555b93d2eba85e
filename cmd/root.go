package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"bddkit/internal/config"
	"bddkit/pkg/logging"
)

var (
	configPath string
	logLevel   string

	// loadedConfig is filled by the persistent pre-run of every command.
	loadedConfig config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bddkit",
	Short: "Run Gherkin feature files against APIs, browsers and terminal apps",
	Long: `bddkit runs Gherkin feature files with a shared step catalog for HTTP
APIs, browser UIs and terminal applications. Every scenario gets fresh
fixtures, and resources the scenario created are deleted again after it
finishes, whether it passed or failed.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. failed scenarios, invalid configuration)
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.InitForCLI(logging.ParseLevel(logLevel), cmd.ErrOrStderr())

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		loadedConfig = cfg
		return nil
	},
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "bddkit version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newTagsCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (default: .bddkit/config.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}
