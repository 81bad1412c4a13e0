// Command tessctl drives the OCR engine from the shell: recognize images,
// process multi-page documents, list languages and manage configuration.
package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wudi/tesskit/config"
	"github.com/wudi/tesskit/internal/capi"
	"github.com/wudi/tesskit/observability"
	"github.com/wudi/tesskit/tess"
)

// app is the state shared by every command.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  observability.Logger
	zap     *zap.Logger
	// lib overrides the native library; nil uses the compiled-in one.
	lib capi.Library
	out io.Writer
}

func main() {
	a := &app{out: os.Stdout}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tessctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tessctl",
		Short: "Command line access to the tesskit OCR bindings",
		Long: `tessctl recognizes images with the native OCR engine.

Settings come from a config file (tesskit.toml in the working directory or
the user config directory), TESSKIT_* environment variables and flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.zap != nil {
				_ = a.zap.Sync()
			}
		},
	}
	root.SetOut(a.out)
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./tesskit.toml or "+config.ConfigDir()+"/tesskit.toml)")

	root.AddCommand(
		newVersionCmd(a),
		newLangsCmd(a),
		newOCRCmd(a),
		newPagesCmd(a),
		newVarsCmd(a),
		newConfigCmd(a),
		newWatchCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	zl, err := observability.BuildZap(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	a.zap = zl
	a.logger = observability.NewZapLogger(zl)
	return nil
}

// newAPI creates an engine instance without initializing it.
func (a *app) newAPI() (*tess.API, error) {
	opts := []tess.Option{tess.WithLogger(a.logger)}
	if a.lib != nil {
		opts = append(opts, tess.WithLibrary(a.lib))
	}
	return tess.New(opts...)
}

// openAPI creates an engine instance configured from cfg.
func (a *app) openAPI(cfg *config.Config) (*tess.API, error) {
	api, err := a.newAPI()
	if err != nil {
		return nil, err
	}
	if err := applyConfig(api, cfg); err != nil {
		api.Close()
		return nil, err
	}
	return api, nil
}

// applyConfig brings api in line with cfg. The engine is only reloaded when
// the language source changed.
func applyConfig(api *tess.API, cfg *config.Config) error {
	if err := api.InitWithOptions(cfg.InitOptions()); err != nil {
		return err
	}
	for _, name := range sortedKeys(cfg.Variables) {
		if err := api.SetVariable(name, cfg.Variables[name]); err != nil {
			return err
		}
	}
	return api.SetPageSegMode(tess.PageSegMode(cfg.PageSegMode))
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}

// interactive reports whether w is a terminal.
func interactive(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
