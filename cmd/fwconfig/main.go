// Command fwconfig assembles framework configuration fragments into a
// process and serves or prints the result.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/fwconfig/internal/assembler"
	"github.com/gyaneshwarpardhi/fwconfig/internal/catalog"
	"github.com/gyaneshwarpardhi/fwconfig/internal/config"
	"github.com/gyaneshwarpardhi/fwconfig/internal/engine"
	"github.com/gyaneshwarpardhi/fwconfig/internal/registry"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	fragments string
	builtin   []string
	strict    bool
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "fwconfig",
		Short: "Assemble framework configuration fragments into a process",
		Long: `fwconfig reads parameter sets, modules, sequences and event content
from YAML or HCL fragments, together with fragments built into the binary,
and assembles them into one validated process.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.fragments, "fragments", "f", "", "Fragment file or directory of fragments")
	flags.StringSliceVarP(&opts.builtin, "builtin", "b", nil, "Built-in fragment groups to include (see 'fwconfig plugins')")
	flags.BoolVar(&opts.strict, "strict", false, "Fail on module types missing from the plugin registry")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	root.AddCommand(
		newServeCmd(opts),
		newAssembleCmd(opts),
		newOrderCmd(opts),
		newSelectCmd(opts),
		newPluginsCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, handlerOpts)), nil
	}
	return nil, fmt.Errorf("invalid --log-format %q", format)
}

func (o *options) engine() (*engine.Engine, error) {
	base, err := catalog.Fragments(o.builtin...)
	if err != nil {
		return nil, err
	}
	return engine.New(engine.Options{Registry: registry.Builtin(), Strict: o.strict, Base: base}), nil
}

// loader returns nil when no fragment path was given.
func (o *options) loader() (*config.Loader, error) {
	if o.fragments == "" {
		return nil, nil
	}
	return config.NewLoader(o.fragments)
}

// assemble loads and assembles once, for the one-shot commands.
func (o *options) assemble() (*engine.Engine, *assembler.Process, error) {
	if o.fragments == "" && len(o.builtin) == 0 {
		return nil, nil, fmt.Errorf("nothing to assemble: pass --fragments or --builtin")
	}
	eng, err := o.engine()
	if err != nil {
		return nil, nil, err
	}
	loader, err := o.loader()
	if err != nil {
		return nil, nil, err
	}
	b := &config.Bundle{}
	if loader != nil {
		b = loader.Bundle()
	}
	p, err := eng.Rebuild(b)
	if err != nil {
		return nil, nil, err
	}
	return eng, p, nil
}
