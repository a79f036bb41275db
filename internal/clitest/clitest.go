// Package clitest provides testscript commands for driving the watcher
// binaries from scripts.
package clitest

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rogpeppe/go-internal/testscript"
	"gopkg.in/retry.v1"
)

// WaitTimeout bounds waitfile.
const WaitTimeout = 10 * time.Second

var waitStrategy = retry.LimitTime(WaitTimeout, retry.Exponential{
	Initial:  5 * time.Millisecond,
	Factor:   1.5,
	MaxDelay: 200 * time.Millisecond,
})

// Commands returns the custom script commands:
//
//	waitfile path      wait until path exists
//	appendfile path s  append s and a newline to path
//	openfile path      open path for reading and close it again
//	readfile path      read path to the end
func Commands() map[string]func(ts *testscript.TestScript, neg bool, args []string) {
	return map[string]func(ts *testscript.TestScript, neg bool, args []string){
		"waitfile":   WaitFile,
		"appendfile": AppendFile,
		"openfile":   OpenFile,
		"readfile":   ReadFile,
	}
}

// Setup keeps scripts away from the user's configuration.
func Setup(env *testscript.Env) error {
	config := filepath.Join(env.WorkDir, ".config")
	if err := os.MkdirAll(config, 0o755); err != nil {
		return err
	}
	env.Vars = append(env.Vars,
		"XDG_CONFIG_HOME="+config,
		"INOTOOLS_CONFIG=",
	)
	return nil
}

func WaitFile(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("unsupported: ! waitfile")
	}
	if len(args) != 1 {
		ts.Fatalf("usage: waitfile path")
	}
	path := ts.MkAbs(args[0])
	for attempt := retry.Start(waitStrategy, nil); attempt.Next(); {
		if _, err := os.Stat(path); err == nil {
			return
		}
	}
	ts.Fatalf("timed out after %v waiting for %s", WaitTimeout, args[0])
}

func AppendFile(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("unsupported: ! appendfile")
	}
	if len(args) < 2 {
		ts.Fatalf("usage: appendfile path text...")
	}
	file, err := os.OpenFile(ts.MkAbs(args[0]), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	ts.Check(err)
	_, err = file.WriteString(strings.Join(args[1:], " ") + "\n")
	ts.Check(err)
	ts.Check(file.Close())
}

func OpenFile(ts *testscript.TestScript, neg bool, args []string) {
	if len(args) != 1 {
		ts.Fatalf("usage: openfile path")
	}
	file, err := os.Open(ts.MkAbs(args[0]))
	if neg {
		if err == nil {
			file.Close()
			ts.Fatalf("unexpectedly opened %s", args[0])
		}
		return
	}
	ts.Check(err)
	ts.Check(file.Close())
}

func ReadFile(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("unsupported: ! readfile")
	}
	if len(args) != 1 {
		ts.Fatalf("usage: readfile path")
	}
	_, err := os.ReadFile(ts.MkAbs(args[0]))
	ts.Check(err)
}
