package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/dcmdict/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Parts.Modules != "part03" || cfg.Parts.Sops != "part04" || cfg.Parts.Registry != "part06" {
		t.Errorf("unexpected default parts: %+v", cfg.Parts)
	}
	if got := len(cfg.Tables.Attributes); got != 2 {
		t.Fatalf("default attribute sources = %d, want 2", got)
	}
	if cfg.Tables.Attributes[0].Part != "part07" {
		t.Errorf("first attribute source = %s, want part07", cfg.Tables.Attributes[0].Part)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source != DefaultSource {
		t.Errorf("Source = %s, want %s", cfg.Source, DefaultSource)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dcmdict.toml")
	data := `
source = "/srv/docbook"

[cache]
backend = "memory"
ttl = "2h"

[parts]
modules = "p3"

[tables]
uids = "table_X"
sops = ["table_S"]

[[tables.attributes]]
part = "p7"
ids = ["table_A", "table_B"]
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != "/srv/docbook" {
		t.Errorf("Source = %s", cfg.Source)
	}
	if cfg.Cache.Backend != "memory" || cfg.Cache.TTL.Duration != 2*time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Parts.Modules != "p3" {
		t.Errorf("Parts.Modules = %s", cfg.Parts.Modules)
	}
	if cfg.Parts.Registry != "part06" {
		t.Errorf("Parts.Registry should keep default, got %s", cfg.Parts.Registry)
	}
	if len(cfg.Tables.Attributes) != 1 || cfg.Tables.Attributes[0].Part != "p7" {
		t.Errorf("Tables.Attributes = %+v", cfg.Tables.Attributes)
	}
	if cfg.Tables.Uids != "table_X" || len(cfg.Tables.Sops) != 1 {
		t.Errorf("Tables = %+v", cfg.Tables)
	}

	opts := cfg.CacheOptions()
	if opts.Backend != "memory" || opts.TTL != 2*time.Hour {
		t.Errorf("CacheOptions = %+v", opts)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", "source = "},
		{"unknown key", `sauce = "x"`},
		{"bad backend", "[cache]\nbackend = \"s3\""},
		{"bad ttl", "[cache]\nttl = \"soon\""},
		{"bad part", "[parts]\nmodules = \"../etc\""},
		{"ftp source", `source = "ftp://example.com"`},
		{"empty sops", "[tables]\nsops = []"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if tt.name != "ftp source" && !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error code = %s, want INVALID_CONFIG", errors.GetCode(err))
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Load(missing) = %v, want INVALID_CONFIG", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty source", func(c *Config) { c.Source = "" }},
		{"no attribute tables", func(c *Config) { c.Tables.Attributes = nil }},
		{"attribute source without ids", func(c *Config) { c.Tables.Attributes[0].IDs = nil }},
		{"no uid table", func(c *Config) { c.Tables.Uids = "" }},
		{"empty registry", func(c *Config) { c.Parts.Registry = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestResolverOptions(t *testing.T) {
	cfg := Default()
	cfg.Parts.Modules = "part03-trimmed"
	cfg.Tables.Attributes = []AttributeSource{{Part: "part06", IDs: []string{"table_6-1"}}}

	opts := cfg.ResolverOptions()
	if opts.ModulesPart != "part03-trimmed" || opts.SopsPart != "part04" || opts.RegistryPart != "part06" {
		t.Errorf("parts = %s/%s/%s", opts.ModulesPart, opts.SopsPart, opts.RegistryPart)
	}
	if len(opts.AttributeSources) != 1 || opts.AttributeSources[0].Tables[0] != "table_6-1" {
		t.Errorf("attribute sources = %+v", opts.AttributeSources)
	}
	if opts.UidTable != "table_A-1" || len(opts.SopTables) != 4 {
		t.Errorf("tables = %s %v", opts.UidTable, opts.SopTables)
	}
	if len(opts.SopPatterns) != 0 || len(opts.MandatoryTags) != 0 || opts.Logger != nil {
		t.Error("filters and logger belong to the caller")
	}
}
