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
		if !errors.Is(err, errSortConflict) {
			fmt.Fprintf(errOut, "Try '%s --help' for more information.\n", toolName)
		}
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

	sortKey, ascending := cfg.sortOrder()
	stats, err := aggregate.NewStats(out, aggregate.StatsOptions{
		Requested: plan.Requested,
		Zero:      cfg.Zero,
		SortKey:   sortKey,
		Ascending: ascending,
		CSV:       plan.Settings.CSV,
	})
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeFailure
	}

	session := cli.Session{
		Plan:      plan,
		Sink:      stats,
		MaxEvents: cfg.Common.MaxEvents(true),
		Banners: cli.Banners{
			SettingUp:   "Establishing watches...",
			Established: "Finished establishing watches, now collecting statistics.",
		},
		ErrOut: errOut,
	}
	_, err = session.Run(ctx)
	return exitCodeFor(errOut, err)
}
