package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/fwconfig/internal/assembler"
	"github.com/gyaneshwarpardhi/fwconfig/internal/catalog"
	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
	"github.com/gyaneshwarpardhi/fwconfig/internal/registry"
)

func newAssembleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "assemble",
		Short: "Assemble the process and print it as one YAML fragment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p, err := opts.assemble()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(p); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newOrderCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "order <sequence>",
		Short: "Print the modules a sequence runs, in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p, err := opts.assemble()
			if err != nil {
				return err
			}
			s, ok := p.Sequence(args[0])
			if !ok {
				return cfgerr.New(cfgerr.ErrNotFound, args[0], "no sequence %q", args[0])
			}
			out := cmd.OutOrStdout()
			steps := s.Steps()
			for _, step := range steps {
				fmt.Fprintln(out, step)
			}
			fmt.Fprintf(out, "# %s = %s\n", args[0], assembler.FormatSteps(steps))
			return nil
		},
	}
}

func newSelectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "select <event-content> <branch>...",
		Short: "Show which branches an event content definition keeps",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := opts.assemble()
			if err != nil {
				return err
			}
			sel, err := eng.Select(args[0], args[1:])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, b := range sel.Kept {
				fmt.Fprintln(out, "keep", b)
			}
			for _, b := range sel.Dropped {
				fmt.Fprintln(out, "drop", b)
			}
			return nil
		},
	}
}

func newPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List registered module types and built-in fragment groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tKIND")
			for _, p := range registry.Builtin().Plugins() {
				fmt.Fprintf(w, "%s\t%s\n", p.Type, p.Kind)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "BUILTIN FRAGMENT")
			for _, name := range catalog.Names() {
				fmt.Fprintln(w, name)
			}
			return w.Flush()
		},
	}
}
