// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package altotxt

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	good := filepath.Join(dir, "good.yaml")
	err := os.WriteFile(good, []byte("workers: 3\nnamespaces:\n  - http://www.loc.gov/standards/alto/ns-v3#\npdf: true\nstorage: aws\nbucket: books\n"), 0644)
	if err != nil {
		t.Fatalf("Could not write config file: %v", err)
	}
	zero := filepath.Join(dir, "zero.yaml")
	err = os.WriteFile(zero, []byte("workers: 0\n"), 0644)
	if err != nil {
		t.Fatalf("Could not write config file: %v", err)
	}
	bad := filepath.Join(dir, "bad.yaml")
	err = os.WriteFile(bad, []byte("workers: [\n"), 0644)
	if err != nil {
		t.Fatalf("Could not write config file: %v", err)
	}
	badstorage := filepath.Join(dir, "badstorage.yaml")
	err = os.WriteFile(badstorage, []byte("storage: floppy\n"), 0644)
	if err != nil {
		t.Fatalf("Could not write config file: %v", err)
	}

	defaults := DefaultConfig()

	cases := []struct {
		name     string
		path     string
		env      map[string]string
		expected Config
		err      bool
	}{
		{"defaults", "", nil, defaults, false},
		{"file", good, nil, Config{
			Workers:    3,
			Namespaces: []string{"http://www.loc.gov/standards/alto/ns-v3#"},
			PDF:        true,
			Storage:    "aws",
			Bucket:     "books",
		}, false},
		{"env", good, map[string]string{
			"ALTOTXT_WORKERS":    "5",
			"ALTOTXT_PDF":        "false",
			"ALTOTXT_GRAPH":      "1",
			"ALTOTXT_NAMESPACES": "a, b,,",
			"ALTOTXT_UPLOAD":     "s3://books/texts",
		}, Config{
			Workers:    5,
			Namespaces: []string{"a", "b"},
			Graph:      true,
			Storage:    "aws",
			Bucket:     "books",
			Upload:     "s3://books/texts",
		}, false},
		{"zeroworkers", zero, nil, Config{Workers: 1, Storage: "local"}, false},
		{"notpresent", filepath.Join(dir, "notpresent.yaml"), nil, Config{}, true},
		{"badyaml", bad, nil, Config{}, true},
		{"badstorage", badstorage, nil, Config{}, true},
		{"badenvbool", "", map[string]string{"ALTOTXT_KEEP": "perhaps"}, Config{}, true},
		{"badenvint", "", map[string]string{"ALTOTXT_WORKERS": "many"}, Config{}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for k, v := range c.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadConfig(c.path)
			if err == nil && c.err {
				t.Fatalf("Expected an error, got none")
			}
			if err != nil && !c.err {
				t.Fatalf("Expected no error, got error '%v'", err)
			}
			if c.err {
				return
			}
			if !reflect.DeepEqual(cfg, c.expected) {
				t.Fatalf("Expected %+v, got %+v", c.expected, cfg)
			}
		})
	}
}

func TestLoadConfigDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	p := DefaultConfigPath()
	err := os.MkdirAll(filepath.Dir(p), 0755)
	if err != nil {
		t.Fatalf("Could not create config directory: %v", err)
	}
	err = os.WriteFile(p, []byte("keep: true\nregion: us-east-1\n"), 0644)
	if err != nil {
		t.Fatalf("Could not write config file: %v", err)
	}

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !cfg.Keep || cfg.Region != "us-east-1" {
		t.Fatalf("Expected default config file to be used, got %+v", cfg)
	}
}
