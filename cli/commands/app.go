package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/gemkit/cli/config"
	"github.com/petal-labs/gemkit/cli/keystore"
	"github.com/petal-labs/gemkit/core"
	"github.com/petal-labs/gemkit/providers/gemini"
)

// APIKeyEnv is consulted when --api-key is not given.
const APIKeyEnv = "GEMINI_API_KEY"

// ConfigLoader loads CLI config from a path.
type ConfigLoader func(path string) (*config.Config, error)

// ClientFactory builds a client from resolved settings.
type ClientFactory func(cfg gemini.ClientConfig, opts ...core.ClientOption) *core.Client

// KeystoreFactory creates a keystore instance.
type KeystoreFactory func() (keystore.Keystore, error)

// AppOption customizes App dependencies.
type AppOption func(*App)

// App holds CLI state and runtime dependencies.
type App struct {
	root *cobra.Command

	loadConfig  ConfigLoader
	newClient   ClientFactory
	newKeystore KeystoreFactory
	getenv      func(string) string
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer

	cfgFile    string
	model      string
	apiKey     string
	jsonOutput bool
	verbose    bool
	cfg        *config.Config

	gen generateFlags
}

// WithConfigLoader injects a config loader dependency.
func WithConfigLoader(loader ConfigLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loadConfig = loader
		}
	}
}

// WithClientFactory injects the client constructor.
func WithClientFactory(factory ClientFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newClient = factory
		}
	}
}

// WithKeystoreFactory injects a keystore factory dependency.
func WithKeystoreFactory(factory KeystoreFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newKeystore = factory
		}
	}
}

// WithGetenv replaces os.Getenv for API key lookup.
func WithGetenv(getenv func(string) string) AppOption {
	return func(a *App) {
		if getenv != nil {
			a.getenv = getenv
		}
	}
}

// WithIO injects process I/O streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) AppOption {
	return func(a *App) {
		if stdin != nil {
			a.stdin = stdin
		}
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// NewApp creates a new CLI app with default dependencies.
func NewApp(opts ...AppOption) *App {
	a := &App{
		loadConfig:  config.LoadConfig,
		newClient:   gemini.NewClient,
		newKeystore: keystore.NewKeystore,
		getenv:      os.Getenv,
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()
	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "gemkit",
		Short: "gemkit - command-line client for the Gemini API",
		Long: `gemkit is a command-line interface for the Gemini generative-language API.

Use gemkit to generate and stream content, list models, count tokens,
and manage stored API keys.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	// Global flags available to all commands.
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.gemkit/config.yaml)")
	root.PersistentFlags().StringVar(&a.model, "model", "", "model ID (e.g. gemini-2.5-flash)")
	root.PersistentFlags().StringVar(&a.apiKey, "api-key", "", "API key (default: $"+APIKeyEnv+", keystore, config)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "emit JSON output")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "log call telemetry to stderr")

	root.AddCommand(a.newGenerateCommand())
	root.AddCommand(a.newModelsCommand())
	root.AddCommand(a.newTokensCommand())
	root.AddCommand(a.newKeysCommand())
	root.AddCommand(a.newConfigCommand())
	root.AddCommand(a.newInitCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// Execute runs the root command.
func (a *App) Execute() error {
	return a.ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which commands use for calls.
func (a *App) ExecuteContext(ctx context.Context) error {
	err := a.root.ExecuteContext(ctx)
	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || !ee.reported {
			a.printError(err)
		}
	}
	return err
}

// SetArgs overrides os.Args[1:], mainly for tests.
func (a *App) SetArgs(args []string) {
	a.root.SetArgs(args)
}

func (a *App) initConfig() error {
	path := a.configPath()

	cfg, err := a.loadConfig(path)
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	a.cfg = cfg

	if a.model == "" && cfg.DefaultModel != "" {
		a.model = cfg.DefaultModel
	}
	return nil
}

func (a *App) configPath() string {
	if a.cfgFile != "" {
		return a.cfgFile
	}
	return config.DefaultConfigPath()
}

// client builds a client from the loaded config and the resolved API key.
func (a *App) client() (*core.Client, error) {
	key, source, err := a.resolveAPIKey()
	if err != nil {
		return nil, err
	}

	cc := a.cfg.ClientConfig(key)
	if a.model != "" {
		cc.DefaultModel = core.ModelID(a.model)
	}

	var opts []core.ClientOption
	if a.verbose {
		logger := slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		logger.Debug("api key resolved", "source", source, "hint", core.NewSecret(key).Hint())
		opts = append(opts, core.WithTelemetry(newLogHook(logger)))
	}
	return a.newClient(cc, opts...), nil
}

// resolveAPIKey checks --api-key, the environment, the keystore and the config file, in that order.
// source names where the key came from.
func (a *App) resolveAPIKey() (key, source string, err error) {
	if a.apiKey != "" {
		return a.apiKey, "flag", nil
	}
	if v := a.getenv(APIKeyEnv); v != "" {
		return v, "env", nil
	}

	name := a.cfg.KeystoreName()
	if ks, err := a.newKeystore(); err == nil {
		v, err := ks.Get(name)
		switch {
		case err == nil && v != "":
			return v, "keystore", nil
		case err != nil && !keystore.IsNotFound(err):
			return "", "", exitWithCode(ExitValidation, err)
		}
	}

	if a.cfg.APIKey != "" {
		return a.cfg.APIKey, "config", nil
	}
	return "", "", exitWithCode(ExitValidation, errNoAPIKey(name))
}

var defaultApp = NewApp()

// Execute runs the default app root command.
func Execute(ctx context.Context) error {
	return defaultApp.ExecuteContext(ctx)
}
