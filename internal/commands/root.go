package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/estatement/internal/buildinfo"
)

// Keys read through viper. Each is settable by flag or ESTATEMENT_<KEY>.
const (
	keyDataDir   = "data-dir"
	keyConfig    = "config"
	keyLogLevel  = "log-level"
	keyLogFormat = "log-format"
	keyServer    = "server"
	keyToken     = "token"
	keyJWTSecret = "jwt-secret"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:     "estatement",
		Short:   "Search, import and export bank e-statements",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String(keyDataDir, ".", "directory holding estatement.yaml, the database and the upload log")
	pf.String(keyConfig, "", "config file (default: <data-dir>/estatement.yaml)")
	pf.String(keyLogLevel, "", "log level override (debug, info, warn, error)")
	pf.String(keyLogFormat, "", "log format override (text, json)")
	pf.String(keyServer, "", "base URL of a remote estatement server")
	pf.String(keyToken, "", "bearer token for --server")

	for _, name := range []string{keyDataDir, keyConfig, keyLogLevel, keyLogFormat, keyServer, keyToken} {
		_ = opts.v.BindPFlag(name, pf.Lookup(name))
	}
	_ = opts.v.BindEnv(keyJWTSecret)
	opts.v.SetEnvPrefix("ESTATEMENT")
	opts.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	opts.v.AutomaticEnv()

	rootCmd.AddCommand(
		newInitCommand(opts),
		newImportCommand(opts),
		newSearchCommand(opts),
		newExportCommand(opts),
		newServeCommand(opts),
		newBrowseCommand(opts),
		newLoginCommand(opts),
		newUploadCommand(opts),
		newUploadsCommand(opts),
		newShowCommand(opts),
		newAccountsCommand(opts),
		newUserCommand(opts),
	)

	return rootCmd
}
