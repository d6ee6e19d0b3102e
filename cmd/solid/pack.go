package main

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/jpl-au/solid"
)

// manifest assigns tags to packed files and sets the global metadata.
//
//	global: "release 1.4"
//	rules:
//	  - match: "*.md"
//	    tags: [docs]
//	  - match: "img/*"
//	    tags: [assets, binary]
//
// A pattern without a slash matches the file's base name; one with a
// slash matches its path relative to the packed directory.
type manifest struct {
	Global string `yaml:"global"`
	Rules  []rule `yaml:"rules"`
}

type rule struct {
	Match string   `yaml:"match"`
	Tags  []string `yaml:"tags"`
}

func loadManifest(filename string) (*manifest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", filename, err)
	}
	for i, r := range m.Rules {
		if _, err := path.Match(r.Match, ""); err != nil {
			return nil, fmt.Errorf("manifest rule %d: bad pattern %q: %w", i, r.Match, err)
		}
	}
	return &m, nil
}

// tagsFor returns the tags every matching rule assigns to rel, in rule
// order and without repeats.
func (m *manifest) tagsFor(rel string) []string {
	var tags []string
	for _, r := range m.Rules {
		target := rel
		if !strings.Contains(r.Match, "/") {
			target = path.Base(rel)
		}
		if ok, _ := path.Match(r.Match, target); !ok {
			continue
		}
		for _, tag := range r.Tags {
			if !slices.Contains(tags, tag) {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

func runPack(args []string, stdout, stderr io.Writer) error {
	var (
		flags        common
		manifestPath string
		tags         []string
		global       string
		useZstd      bool
		asJSON       bool
	)
	flagSet := pflag.NewFlagSet("pack", pflag.ContinueOnError)
	flags.addFlags(flagSet)
	flagSet.StringVarP(&manifestPath, "manifest", "m", "", "YAML manifest assigning tags by pattern")
	flagSet.StringSliceVarP(&tags, "tag", "t", nil, "tag applied to every entry (repeatable)")
	flagSet.StringVar(&global, "global", "", "global metadata string (overrides the manifest)")
	flagSet.BoolVar(&useZstd, "zstd", false, "zstd-compress entry content before storing it")
	flagSet.BoolVar(&asJSON, "json", false, "print the build report as JSON")

	positional, err := parse(flagSet, args, 2, 2, "pack [flags] <dir> <archive>", stdout)
	if err != nil || positional == nil {
		return err
	}
	srcDir, out := positional[0], positional[1]
	logger := flags.logger(stderr)

	m := &manifest{}
	if manifestPath != "" {
		if m, err = loadManifest(manifestPath); err != nil {
			return err
		}
	}
	if global != "" {
		m.Global = global
	}

	a := solid.New(solid.Config{Logger: logger})
	if m.Global != "" {
		if err := a.SetGlobalMetadata([]byte(m.Global)); err != nil {
			return err
		}
	}

	outAbs, _ := filepath.Abs(out)
	err = filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if abs, _ := filepath.Abs(p); abs == outAbs {
			return nil
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		return addFile(a, p, rel, append(slices.Clone(tags), m.tagsFor(rel)...), useZstd, logger)
	})
	if err != nil {
		return fmt.Errorf("packing %s: %w", srcDir, err)
	}

	dir, name := filepath.Split(out)
	if dir == "" {
		dir = "."
	}
	report, err := a.BuildFile(dir, name)
	if err != nil {
		return err
	}

	if asJSON {
		data, err := report.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
		return nil
	}
	fmt.Fprintln(stdout, report)
	fmt.Fprintln(stdout, report.Digest)
	return nil
}

func addFile(a *solid.Archive, filename, rel string, tags []string, useZstd bool, logger *slog.Logger) error {
	info, err := os.Stat(filename)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	encoding := ""
	if useZstd {
		data = compress(data)
		encoding = encodingZstd
	}
	meta, err := newFileMeta(info, encoding).marshal()
	if err != nil {
		return fmt.Errorf("encoding metadata for %s: %w", rel, err)
	}
	if err := a.Add(rel, data, tags, meta); err != nil {
		return err
	}
	logger.Debug("added", slog.String("id", rel), slog.Int("bytes", len(data)), slog.Any("tags", tags))
	return nil
}
