package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/celikgo/og-cli/internal/config"
	"github.com/celikgo/og-cli/internal/credstore"
	"github.com/celikgo/og-cli/internal/kubeconfig"
	"github.com/celikgo/og-cli/internal/kubesync"
	"github.com/celikgo/og-cli/internal/logging"
	"github.com/celikgo/og-cli/internal/prompt"
	"github.com/celikgo/og-cli/internal/rancher"
)

// application holds everything a command needs; it is built once per run
type application struct {
	config     *config.Config
	configPath string
	configErr  error
	log        zerolog.Logger
	kubeconfig *kubeconfig.Store
	prompter   *prompt.Prompter

	tokens    *credstore.Store
	tokensErr error
}

func overridesFromFlags() config.Overrides {
	return config.Overrides{
		RancherBaseURL: viper.GetString("rancher-url"),
		Kubeconfig:     viper.GetString("kubeconfig"),
	}
}

// init loads the config and wires the kubeconfig store. With tolerant set
// a broken config file is remembered instead of failing, and defaults apply.
func (a *application) init(configPath string, overrides config.Overrides, verbose, tolerant bool) error {
	a.log = logging.New(os.Stderr, verbose)
	a.configPath = config.ResolvePath(configPath)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		if !tolerant {
			return errors.Wrap(err, "failed to load configuration")
		}
		a.log.Debug().Err(err).Msg("falling back to default configuration")
		a.configErr = err
		cfg = config.Default()
	}
	if err := config.ApplyOverrides(cfg, overrides); err != nil {
		return errors.Wrap(err, "invalid flag or environment override")
	}
	a.config = cfg

	path := cfg.Kubeconfig
	if path == "" {
		path, err = kubeconfig.DefaultPath()
		if err != nil {
			return err
		}
	}
	a.kubeconfig = kubeconfig.NewStore(path)
	a.prompter = prompt.New(os.Stdin, os.Stdout)

	a.log.Debug().
		Str("kubeconfig", path).
		Str("rancher", cfg.Rancher.BaseURL).
		Msg("configuration loaded")
	return nil
}

// tokenStore opens the OS credential store on first use. Opening may trigger
// a password prompt, so commands that never need the token never pay for it.
func (a *application) tokenStore() (*credstore.Store, error) {
	if a.tokens == nil && a.tokensErr == nil {
		a.tokens, a.tokensErr = credstore.Open(a.config.Keyring.Service, a.config.Keyring.Key)
	}
	return a.tokens, a.tokensErr
}

func (a *application) directory() *rancher.Directory {
	return rancher.NewDirectory(a.config.Rancher.BaseURL, a.config.TimeoutDuration(), a.log)
}

func (a *application) runner() *kubesync.Runner {
	return &kubesync.Runner{
		Store:         a.kubeconfig,
		Directory:     a.directory(),
		Tokens:        lazyTokens{app: a},
		Selector:      a.prompter,
		ManagedPrefix: a.config.ManagedPrefix,
		Out:           os.Stdout,
		Log:           a.log,
	}
}

// lazyTokens defers opening the credential store until the token is read
type lazyTokens struct {
	app *application
}

func (l lazyTokens) Get() (string, error) {
	store, err := l.app.tokenStore()
	if err != nil {
		return "", err
	}
	return store.Get()
}
