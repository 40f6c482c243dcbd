package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jrsaavedra1022/jwtgen"
)

// Version information (injected at build time via -ldflags)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// app holds the values of the persistent flags for one invocation.
type app struct {
	configPath string
	payloadDir string
	output     string
	logLevel   string
	logFormat  string
	verbose    bool

	logger *slog.Logger
}

// NewRootCommand builds the jwtgen command tree with flag defaults taken from settings.
func NewRootCommand(settings Settings) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "jwtgen",
		Short: "Generate RS256 JWTs from environment profiles",
		Long: `jwtgen signs RS256 JSON Web Tokens using signing profiles declared in a
YAML file. Each environment carries an issuer and a set of profiles with an
audience, inline PEM key material and a payload template.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := NewPrinter(a.output, io.Discard).validate(); err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), a.logLevel, a.logFormat, a.verbose)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", settings.ConfigPath, "YAML file with environments, profiles and keys (env JWTGEN_CONFIG)")
	flags.StringVar(&a.payloadDir, "payload-dir", settings.PayloadDir, "directory holding <name>.json payload templates (env JWTGEN_PAYLOAD_DIR)")
	flags.StringVarP(&a.output, "output", "o", settings.Output, "output format (text, json)")
	flags.StringVar(&a.logLevel, "log-level", settings.LogLevel, "log level (debug, info, warn, error) (env JWTGEN_LOG_LEVEL)")
	flags.StringVar(&a.logFormat, "log-format", settings.LogFormat, "log format (text, json) (env JWTGEN_LOG_FORMAT)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "print context (never keys) and debug logs to stderr")

	root.AddCommand(
		newVersionCommand(a),
		newListEnvsCommand(a),
		newListProfilesCommand(a),
		newShowProfileCommand(a),
		newSignCommand(a),
		newDevKeysCommand(a),
	)
	return root
}

// Run executes the command tree with args and returns the process exit code.
func Run(args []string, settings Settings, stdout, stderr io.Writer) int {
	root := NewRootCommand(settings)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		format, _ := root.PersistentFlags().GetString("output")
		if format != string(OutputFormatJSON) {
			format = string(OutputFormatText)
		}
		_ = NewPrinter(format, stderr).PrintError(err) // best-effort
		return 1
	}
	return 0
}

// Execute runs jwtgen against the process arguments and environment.
func Execute() int {
	settings, err := LoadSettings(DefaultEnvFile())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return Run(os.Args[1:], settings, os.Stdout, os.Stderr)
}

func (a *app) printer(cmd *cobra.Command) *Printer {
	return NewPrinter(a.output, cmd.OutOrStdout())
}

func (a *app) loadConfig() (*jwtgen.Config, error) {
	a.logger.Debug("loading config", "path", a.configPath)
	return jwtgen.LoadConfig(a.configPath)
}

// printVerbose prints a message if verbose mode is enabled
func (a *app) printVerbose(cmd *cobra.Command, format string, args ...any) {
	if a.verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "[VERBOSE] "+format+"\n", args...)
	}
}
