package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"inotools/internal/aggregate"
	"inotools/internal/cli"
	"inotools/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runContext(ctx, args, os.Stdin, out, errOut)
}

func runContext(ctx context.Context, args []string, stdin io.Reader, out io.Writer, errOut io.Writer) int {
	cfg, err := parseArgs(args, out, errOut)
	if err != nil {
		if errors.Is(err, errHelp) {
			return exitCodeSuccess
		}
		fmt.Fprintln(errOut, err)
		fmt.Fprintf(errOut, "Try '%s --help' for more information.\n", toolName)
		return exitCodeFailure
	}
	if cfg.ShowVersion {
		fmt.Fprintln(out, version.Line(toolName))
		return exitCodeSuccess
	}

	plan, err := cfg.Common.BuildPlan(cli.Inputs{
		Tool:      toolName,
		Flags:     cfg.Flags,
		Args:      cfg.Args,
		Stdin:     stdin,
		LogOutput: errOut,
	})
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeFailure
	}
	cli.PrintWarnings(errOut, plan.Warnings)

	format := plan.Settings.Format
	if format == "" {
		format = aggregate.DefaultFormat
	}
	formatter, err := aggregate.NewFormatter(format, plan.Settings.Timefmt)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeFailure
	}

	output := out
	if cfg.Outfile != "" {
		file, err := os.OpenFile(cfg.Outfile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return exitCodeFailure
		}
		defer file.Close()
		output = file
	}

	session := cli.Session{
		Plan: plan,
		Sink: aggregate.NewStream(output, formatter, aggregate.StreamOptions{
			CSV:       plan.Settings.CSV,
			NoNewline: cfg.NoNewline,
		}),
		MaxEvents: cfg.Common.MaxEvents(cfg.Monitor),
		Banners: cli.Banners{
			SettingUp:   "Setting up watches.",
			Established: "Watches established.",
		},
		ErrOut: errOut,
	}
	_, err = session.Run(ctx)
	return exitCodeFor(errOut, err)
}
