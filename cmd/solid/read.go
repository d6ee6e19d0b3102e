package main

import (
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
)

func runList(args []string, stdout, stderr io.Writer) error {
	var (
		flags common
		long  bool
	)
	flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
	flags.addFlags(flagSet)
	flagSet.BoolVarP(&long, "long", "l", false, "show size, mode, encoding and tags")

	positional, err := parse(flagSet, args, 1, 1, "list [flags] <archive>", stdout)
	if err != nil || positional == nil {
		return err
	}
	a, err := openArchive(positional[0], flags.logger(stderr))
	if err != nil {
		return err
	}
	defer a.Close()

	ids, err := a.IDs()
	if err != nil {
		return err
	}
	if !long {
		for _, id := range ids {
			fmt.Fprintln(stdout, id)
		}
		return nil
	}

	tags, err := a.Tags()
	if err != nil {
		return err
	}
	tagged := make(map[string][]string)
	for _, tag := range tags {
		list, err := a.MetadataByTag(tag)
		if err != nil {
			return err
		}
		for _, m := range list {
			tagged[m.ID] = append(tagged[m.ID], tag)
		}
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, id := range ids {
		m, err := a.Metadata(id)
		if err != nil {
			return err
		}
		mode, size, mtime, encoding := "-", fmt.Sprint(m.ContentLength), "-", "-"
		if fm, ok := decodeFileMeta(m.Metadata); ok {
			mode = fs.FileMode(fm.Mode).String()
			size = fmt.Sprint(fm.Size)
			mtime = fm.modTime().UTC().Format(time.DateTime)
			if fm.Encoding != "" {
				encoding = fm.Encoding
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			mode, size, m.ContentLength, mtime, encoding, id, strings.Join(tagged[id], ","))
	}
	return tw.Flush()
}

func runCat(args []string, stdout, stderr io.Writer) error {
	var (
		flags common
		raw   bool
	)
	flagSet := pflag.NewFlagSet("cat", pflag.ContinueOnError)
	flags.addFlags(flagSet)
	flagSet.BoolVar(&raw, "raw", false, "write stored bytes without undoing the content encoding")

	positional, err := parse(flagSet, args, 2, 2, "cat [flags] <archive> <id>", stdout)
	if err != nil || positional == nil {
		return err
	}
	a, err := openArchive(positional[0], flags.logger(stderr))
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.Get(positional[1])
	if err != nil {
		return err
	}
	data := e.Contents
	if fm, ok := decodeFileMeta(e.Metadata); ok && !raw {
		if data, err = decode(data, fm.Encoding); err != nil {
			return fmt.Errorf("%s: %w", e.ID, err)
		}
	}
	_, err = stdout.Write(data)
	return err
}

func runTags(args []string, stdout, stderr io.Writer) error {
	var flags common
	flagSet := pflag.NewFlagSet("tags", pflag.ContinueOnError)
	flags.addFlags(flagSet)

	positional, err := parse(flagSet, args, 1, 2, "tags [flags] <archive> [tag]", stdout)
	if err != nil || positional == nil {
		return err
	}
	a, err := openArchive(positional[0], flags.logger(stderr))
	if err != nil {
		return err
	}
	defer a.Close()

	if len(positional) == 2 {
		list, err := a.MetadataByTag(positional[1])
		if err != nil {
			return err
		}
		for _, m := range list {
			fmt.Fprintln(stdout, m.ID)
		}
		return nil
	}

	tags, err := a.Tags()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, tag := range tags {
		list, err := a.MetadataByTag(tag)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%d\n", tag, len(list))
	}
	return tw.Flush()
}

func runInfo(args []string, stdout, stderr io.Writer) error {
	var (
		flags  common
		asJSON bool
	)
	flagSet := pflag.NewFlagSet("info", pflag.ContinueOnError)
	flags.addFlags(flagSet)
	flagSet.BoolVar(&asJSON, "json", false, "print the summary as JSON")

	positional, err := parse(flagSet, args, 1, 1, "info [flags] <archive>", stdout)
	if err != nil || positional == nil {
		return err
	}
	a, err := openArchive(positional[0], flags.logger(stderr))
	if err != nil {
		return err
	}
	defer a.Close()

	if !asJSON {
		fmt.Fprintln(stdout, a.Describe())
		if global, _ := a.GlobalMetadata(); len(global) > 0 {
			fmt.Fprintf(stdout, "global metadata: %q\n", global)
		}
		return nil
	}

	summary, err := a.Summary()
	if err != nil {
		return err
	}
	data, err := summary.JSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(data))
	return nil
}
