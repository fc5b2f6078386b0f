package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/taxoview/pkg/config"
	"github.com/matzehuels/taxoview/pkg/errors"
	"github.com/matzehuels/taxoview/pkg/pipeline"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error = %v", err)
	}
	if want := filepath.Join("/tmp/xdg", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestFileCacheDir(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config.Cache.Dir = "/srv/taxoview/cache"

	dir, err := c.fileCacheDir()
	if err != nil {
		t.Fatalf("fileCacheDir() error = %v", err)
	}
	if dir != "/srv/taxoview/cache" {
		t.Errorf("fileCacheDir() = %q", dir)
	}
}

func TestDatasetName(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"animals.json", "animals"},
		{"data/wikidata/animals.yaml", "animals"},
		{"neo4j", "neo4j"},
		{"archive.tar.gz", "archive.tar"},
	}
	for _, tt := range tests {
		if got := datasetName(tt.source); got != tt.want {
			t.Errorf("datasetName(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{pipeline.FormatSVG}},
		{"svg", []string{"svg"}},
		{"svg,json,dot", []string{"svg", "json", "dot"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, parseFormats(tt.in)); diff != "" {
			t.Errorf("parseFormats(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "", "c", "d"); got != "c" {
		t.Errorf("firstNonEmpty() = %q, want c", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Errorf("firstNonEmpty() = %q, want empty", got)
	}
}

func TestOptionsSource(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		dataset string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "argument", args: []string{"animals.json"}, want: "animals.json"},
		{name: "argument wins over config", dataset: "plants.json", args: []string{"animals.json"}, want: "animals.json"},
		{name: "config dataset", dataset: "plants.json", want: "plants.json"},
		{name: "none", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(io.Discard, LogInfo)
			c.Config.Dataset = tt.dataset

			opts, closer, err := c.options(ctx, tt.args, viewFlags{})
			if tt.wantErr {
				if !errors.IsInvalid(err) {
					t.Fatalf("options() error = %v, want invalid input", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("options() error = %v", err)
			}
			defer closer()
			if opts.Source != tt.want {
				t.Errorf("Source = %q, want %q", opts.Source, tt.want)
			}
		})
	}
}

func TestOptionsFlagsOverrideConfig(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config.RootID = "Q729"
	c.Config.DefaultDepth = 2

	f := viewFlags{root: "Q7377", depth: 3, width: 400, palette: config.Default().Palette.Depth}
	opts, closer, err := c.options(context.Background(), []string{"animals.json"}, f)
	if err != nil {
		t.Fatalf("options() error = %v", err)
	}
	defer closer()

	if opts.RootID != "Q7377" || opts.Depth != 3 || opts.Width != 400 {
		t.Errorf("options = root %s depth %d width %v", opts.RootID, opts.Depth, opts.Width)
	}
	if opts.Height != c.Config.Layout.Height {
		t.Errorf("Height = %v, want config %v", opts.Height, c.Config.Layout.Height)
	}

	f.palette = "no-such-palette"
	if _, _, err := c.options(context.Background(), []string{"animals.json"}, f); err == nil {
		t.Error("options() with an unknown palette should fail")
	}
}

func TestWriteArtifacts(t *testing.T) {
	base := filepath.Join(t.TempDir(), "animals.circles")
	artifacts := map[string][]byte{
		pipeline.FormatSVG:  []byte("<svg/>"),
		pipeline.FormatJSON: []byte("{}"),
	}

	paths, err := writeArtifacts(artifacts, base)
	if err != nil {
		t.Fatalf("writeArtifacts() error = %v", err)
	}

	want := []string{base + ".json", base + ".svg"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
	got, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "<svg/>" {
		t.Errorf("svg = %q", got)
	}
}
