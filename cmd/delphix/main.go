package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/riddopic/delphix"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "delphix",
	Short: "Delphix appliance REST client",
	Long: `delphix talks to the JSON REST API of a Delphix appliance.

Each command bootstraps an API session and logs in before issuing the call,
unless --no-login is given. Connection settings come from a profile file,
flags, or both; flags win.

Examples:
  delphix resources                              # List known resources
  delphix get database -p lab                    # GET /resources/json/delphix/database
  delphix get job jobState=RUNNING -s engine     # Query parameters as key=value
  delphix get source --query "[].name"           # Project the body with JMESPath
  delphix post /resources/json/delphix/database/ORACLE_DB_CONTAINER-3/sync --data '{"type":"OracleSyncParameters"}'`,
	Version:       delphix.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Connection flags shared by every command.
var (
	flagConfig     string
	flagProfile    string
	flagServer     string
	flagScheme     string
	flagUser       string
	flagPassword   string
	flagAPIVersion string
	flagTimeout    string
	flagHeaders    []string
	flagVerbose    bool
	flagRaw        bool
	flagNormalize  bool
	flagQuery      string
	flagNoLogin    bool
	flagFull       bool
)

// Body flag for post/delete.
var flagData string

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "Profile file (default ~/.config/delphix/profiles.yaml)")
	pf.StringVarP(&flagProfile, "profile", "p", "", "Profile to use")
	pf.StringVarP(&flagServer, "server", "s", "", "Appliance host[:port] or base URL")
	pf.StringVar(&flagScheme, "scheme", "", "URL scheme (http/https)")
	pf.StringVarP(&flagUser, "user", "u", "", "Login user")
	pf.StringVar(&flagPassword, "password", "", "Login password (or DELPHIX_PASSWORD)")
	pf.StringVar(&flagAPIVersion, "api-version", "", "API version sent at session bootstrap (major.minor.micro)")
	pf.StringVarP(&flagTimeout, "timeout", "t", "", "Per-call timeout (e.g. 30s)")
	pf.StringArrayVarP(&flagHeaders, "header", "H", []string{}, "Extra header (key:value), can be repeated")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Log requests and replies to stderr")
	pf.BoolVar(&flagRaw, "raw", false, "Print the raw body without JSON decoding")
	pf.BoolVar(&flagNormalize, "normalize-keys", false, "Lower-case and symbolize body keys")
	pf.StringVarP(&flagQuery, "query", "q", "", "JMESPath expression applied to the body")
	pf.BoolVar(&flagNoLogin, "no-login", false, "Skip session bootstrap and login")
	pf.BoolVarP(&flagFull, "full", "f", false, "Show status and headers as well as the body")

	postCmd.Flags().StringVarP(&flagData, "data", "d", "", "JSON request body (use @file to read from a file)")
	deleteCmd.Flags().StringVarP(&flagData, "data", "d", "", "JSON request body (use @file to read from a file)")

	rootCmd.AddCommand(getCmd, postCmd, deleteCmd, loginCmd, resourcesCmd, versionCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <resource|/path|url> [key=value...]",
	Short: "Issue a GET; key=value pairs become query parameters",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd, delphix.MethodGet, args)
	},
}

var postCmd = &cobra.Command{
	Use:   "post <resource|/path|url> [key=value...]",
	Short: "Issue a POST with a JSON body",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd, delphix.MethodPost, args)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <resource|/path|url> [key=value...]",
	Short: "Issue a DELETE",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd, delphix.MethodDelete, args)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Bootstrap a session and log in, then print the session cookies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogin(cmd)
	},
}

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "List the known resource collections",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, r := range delphix.Resources() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", r, r.Path())
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), delphix.GetVersion())
	},
}
