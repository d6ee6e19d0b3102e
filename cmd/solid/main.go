// solid packs directories into solid archives and reads them back.
//
// Subcommands:
//
//	pack   build an archive from a directory tree
//	list   list entries
//	cat    write one entry's content to stdout
//	tags   list tags, or the entries carrying one tag
//	info   describe an archive
//
// Entries are named by their slash-separated path relative to the packed
// directory. Each entry's metadata is a CBOR map of file attributes; when
// packed with --zstd the content is compressed before it is stored and
// cat undoes it.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/jpl-au/solid"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		printUsage(stderr)
		return fmt.Errorf("subcommand required")
	}

	subcommand, rest := args[0], args[1:]
	switch subcommand {
	case "pack":
		return runPack(rest, stdout, stderr)
	case "list":
		return runList(rest, stdout, stderr)
	case "cat":
		return runCat(rest, stdout, stderr)
	case "tags":
		return runTags(rest, stdout, stderr)
	case "info":
		return runInfo(rest, stdout, stderr)
	case "-h", "--help", "help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown subcommand: %q", subcommand)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `Usage: solid <subcommand> [flags]

Subcommands:
  pack   Build an archive from a directory tree
  list   List entries
  cat    Write one entry's content to stdout
  tags   List tags, or the entries carrying a tag
  info   Describe an archive

Run 'solid <subcommand> --help' for subcommand flags.
`)
}

// common holds the flags every subcommand accepts.
type common struct {
	verbose bool
}

func (c *common) addFlags(flagSet *pflag.FlagSet) {
	flagSet.BoolVarP(&c.verbose, "verbose", "v", false, "log debug output to stderr")
}

func (c *common) logger(stderr io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

// parse parses args and returns the positional arguments. A nil slice
// with a nil error means help was printed.
func parse(flagSet *pflag.FlagSet, args []string, min, max int, usage string, stdout io.Writer) ([]string, error) {
	flagSet.SetOutput(stdout)
	flagSet.Usage = func() {
		fmt.Fprintf(stdout, "Usage: solid %s\n\n", usage)
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil, nil
		}
		return nil, err
	}
	positional := flagSet.Args()
	if len(positional) < min || len(positional) > max {
		return nil, fmt.Errorf("usage: solid %s", usage)
	}
	return positional, nil
}

// openArchive opens the archive at path for reading.
func openArchive(path string, logger *slog.Logger) (*solid.Archive, error) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	return solid.OpenFile(dir, name, solid.Config{Logger: logger})
}
