package main

import (
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"inotools/internal/cli"
	"inotools/internal/notify"
)

const toolName = "inotifywait"

type Config struct {
	Common      cli.CommonFlags
	Monitor     bool
	NoNewline   bool
	Outfile     string
	ShowVersion bool
	Args        []string
	Flags       *pflag.FlagSet
}

// errHelp is returned after cobra printed the help text.
var errHelp = errors.New("help requested")

func parseArgs(args []string, out io.Writer, errOut io.Writer) (Config, error) {
	cfg := Config{}
	ran := false
	command := &cobra.Command{
		Use:           toolName + " [options] file1 [file2] [file3] [...]",
		Short:         "Wait for a particular event on a file or set of files.",
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
	flags.BoolVarP(&cfg.Monitor, "monitor", "m", false, "Keep listening for events forever or until --timeout expires")
	// format, timefmt and csv are read back through the configuration
	// layer so file and environment values apply too.
	flags.String("format", "", "Print using a specified printf-like `format` string; see the man page for details")
	flags.String("timefmt", "", "strftime-compatible `format` string for use with %T in --format")
	flags.BoolP("csv", "c", false, "Print events in CSV format")
	flags.BoolVar(&cfg.NoNewline, "no-newline", false, "Don't print a newline symbol after --format")
	flags.StringVarP(&cfg.Outfile, "outfile", "o", "", "Print events to `file` rather than stdout")
	flags.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")
	cfg.Flags = flags

	if err := command.Execute(); err != nil {
		return Config{}, err
	}
	if !ran {
		return Config{}, errHelp
	}
	return cfg, nil
}

func helpText() string {
	var b strings.Builder
	b.WriteString("Wait for a particular event on a file or set of files.\n\n")
	b.WriteString("Exit status:\n")
	b.WriteString("  0  an event you asked to watch for was received, or the timeout expired\n")
	b.WriteString("  1  an error occurred in execution of the program\n\n")
	b.WriteString("Events:\n")
	for _, name := range notify.EventNames() {
		b.WriteString("  ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
