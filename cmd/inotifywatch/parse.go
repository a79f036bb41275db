package main

import (
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"inotools/internal/aggregate"
	"inotools/internal/cli"
	"inotools/internal/notify"
)

const toolName = "inotifywatch"

type Config struct {
	Common      cli.CommonFlags
	Zero        bool
	Ascending   string
	Descending  string
	ShowVersion bool
	Args        []string
	Flags       *pflag.FlagSet
}

var (
	errHelp         = errors.New("help requested")
	errSortConflict = errors.New("--ascending and --descending cannot both be specified.")
)

func parseArgs(args []string, out io.Writer, errOut io.Writer) (Config, error) {
	cfg := Config{}
	ran := false
	command := &cobra.Command{
		Use:           toolName + " [options] file1 [file2] [file3] [...]",
		Short:         "Gather filesystem usage statistics using inotify.",
		Long:          helpText(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ran = true
			cfg.Args = args
			return nil
		},
	}
	command.SetOut(out)
	command.SetErr(errOut)
	if args == nil {
		args = []string{}
	}
	command.SetArgs(args)

	flags := command.Flags()
	cli.AddCommonFlags(flags, &cfg.Common)
	flags.BoolVarP(&cfg.Zero, "zero", "z", false, "In the final table of results, output rows and columns even if they consist only of zeros")
	flags.StringVarP(&cfg.Ascending, "ascending", "a", "", "Sort ascending by a particular `event`, or 'total'")
	flags.StringVarP(&cfg.Descending, "descending", "d", "", "Sort descending by a particular `event`, or 'total'")
	// csv is read back through the configuration layer.
	flags.BoolP("csv", "c", false, "Print the table in CSV format")
	flags.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")
	cfg.Flags = flags

	if err := command.Execute(); err != nil {
		return Config{}, err
	}
	if !ran {
		return Config{}, errHelp
	}
	if cfg.Ascending != "" && cfg.Descending != "" {
		return Config{}, errSortConflict
	}
	return cfg, nil
}

// sortOrder resolves the table order. The default is descending by total.
func (cfg Config) sortOrder() (string, bool) {
	if cfg.Ascending != "" {
		return cfg.Ascending, true
	}
	if cfg.Descending != "" {
		return cfg.Descending, false
	}
	return aggregate.SortTotal, false
}

func helpText() string {
	var b strings.Builder
	b.WriteString("Gather filesystem usage statistics using inotify.\n\n")
	b.WriteString("Exit status:\n")
	b.WriteString("  0  exited normally\n")
	b.WriteString("  1  an error occurred in execution of the program\n\n")
	b.WriteString("Events:\n")
	for _, name := range notify.EventNames() {
		b.WriteString("  ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
