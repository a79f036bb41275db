// Package fsutil reads the lists of paths to watch.
package fsutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ExcludePrefix marks a path that must not be watched.
const ExcludePrefix = "@"

// Stdin is the --fromfile name that reads standard input.
const Stdin = "-"

// PathList holds watch targets and excluded paths, in input order.
type PathList struct {
	Targets  []string
	Excludes []string
}

func (list *PathList) add(value string) {
	if strings.HasPrefix(value, ExcludePrefix) {
		if excluded := strings.TrimPrefix(value, ExcludePrefix); excluded != "" {
			list.Excludes = append(list.Excludes, excluded)
		}
		return
	}
	list.Targets = append(list.Targets, value)
}

// Merge appends other after list.
func (list *PathList) Merge(other PathList) {
	list.Targets = append(list.Targets, other.Targets...)
	list.Excludes = append(list.Excludes, other.Excludes...)
}

// SplitArgs separates command-line paths from @-prefixed exclusions.
func SplitArgs(args []string) PathList {
	list := PathList{}
	for _, arg := range args {
		if arg == "" {
			continue
		}
		list.add(arg)
	}
	return list
}

// ReadPathList reads one path per line. Blank lines are skipped and lines
// are otherwise taken verbatim, so names with leading spaces survive.
func ReadPathList(reader io.Reader) (PathList, error) {
	list := PathList{}
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		list.add(line)
	}
	if err := scanner.Err(); err != nil {
		return PathList{}, err
	}
	return list, nil
}

// ReadPathFile reads the list named by --fromfile.
func ReadPathFile(name string, stdin io.Reader) (PathList, error) {
	if name == Stdin {
		return ReadPathList(stdin)
	}
	file, err := os.Open(name)
	if err != nil {
		return PathList{}, fmt.Errorf("Couldn't open %s: %w", name, err)
	}
	defer file.Close()
	return ReadPathList(file)
}
