package solid_test

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/jpl-au/solid"
)

func Example() {
	// Build an archive in memory
	a := solid.New(solid.Config{})
	a.Add("readme", []byte("# My App"), []string{"docs"}, nil)
	a.Add("logo", []byte{0x89, 'P', 'N', 'G'}, []string{"assets"}, nil)

	var buf bytes.Buffer
	if _, err := a.Build(&buf); err != nil {
		log.Fatal(err)
	}

	// Open it and read one entry
	arc, err := solid.OpenBytes(buf.Bytes(), solid.Config{})
	if err != nil {
		log.Fatal(err)
	}
	defer arc.Close()

	e, _ := arc.Get("readme")
	fmt.Println(string(e.Contents))
	// Output: # My App
}

func ExampleArchive_ByTag() {
	a := solid.New(solid.Config{})
	a.Add("doc1", []byte("hello"), []string{"a", "b"}, nil)
	a.Add("doc2", []byte("world!"), []string{"b", "c"}, nil)

	var buf bytes.Buffer
	a.Build(&buf)
	arc, _ := solid.OpenBytes(buf.Bytes(), solid.Config{})
	defer arc.Close()

	entries, _ := arc.ByTag("b")
	for _, e := range entries {
		fmt.Println(e.ID, string(e.Contents))
	}
	missing, _ := arc.ByTag("z")
	fmt.Println(len(missing))
	// Output:
	// doc1 hello
	// doc2 world!
	// 0
}

func ExampleArchive_Build() {
	a := solid.New(solid.Config{})
	a.SetGlobalMetadata([]byte("v1"))
	a.Add("doc1", []byte("hello"), []string{"a", "b"}, nil)
	a.Add("doc2", []byte("world!"), []string{"b", "c"}, nil)

	var buf bytes.Buffer
	report, err := a.Build(&buf)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(report)
	// Output: build ok: 2 entries, 3 tags, 117 index bytes, 11 content bytes
}

func ExampleArchive_Add() {
	a := solid.New(solid.Config{})
	a.Add("doc", []byte("first"), nil, nil)

	err := a.Add("doc", []byte("second"), nil, nil)
	fmt.Println(err)

	// Set replaces instead
	a.Set("doc", []byte("second"), nil, nil)
	e, _ := a.Get("doc")
	fmt.Println(string(e.Contents))
	// Output:
	// solid: entry already exists: "doc"
	// second
}

func ExampleOpenFile() {
	dir, _ := os.MkdirTemp("", "solid-example")
	defer os.RemoveAll(dir)

	a := solid.New(solid.Config{})
	a.Add("config", []byte("theme: dark"), []string{"settings"}, nil)
	if _, err := a.BuildFile(dir, "app.solid"); err != nil {
		log.Fatal(err)
	}

	arc, err := solid.OpenFile(dir, "app.solid", solid.Config{})
	if err != nil {
		log.Fatal(err)
	}
	defer arc.Close()

	fmt.Println(arc.Describe())
	// Output: solid archive v1: 1 entries, 1 tags, index offset 66, 11 content bytes
}
