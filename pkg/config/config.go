// Package config loads the run configuration for dcmdict.
//
// A configuration names the docbook source location, the cache backend and
// the part/table identifiers the resolver reads. Every field has a default
// matching the published DICOM standard layout, so a config file is only
// needed to point at a mirror or to run against a trimmed test corpus.
//
//	source = "https://dicom.nema.org/medical/dicom/current/source/docbook"
//
//	[cache]
//	backend = "file"
//	ttl = "720h"
//
//	[parts]
//	modules = "part03"
//
//	[[tables.attributes]]
//	part = "part07"
//	ids = ["table_E.1-1"]
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/dcmdict/pkg/cache"
	"github.com/matzehuels/dcmdict/pkg/dictionary"
	"github.com/matzehuels/dcmdict/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultSource is the published docbook location of the current standard.
const DefaultSource = "http://dicom.nema.org/medical/dicom/current/source/docbook"

// DefaultCacheTTL keeps downloaded parts for thirty days. The standard is
// republished a few times a year.
const DefaultCacheTTL = 30 * 24 * time.Hour

// Config is the complete run configuration.
type Config struct {
	Source string `toml:"source"`
	Cache  Cache  `toml:"cache"`
	Parts  Parts  `toml:"parts"`
	Tables Tables `toml:"tables"`
}

// Cache selects and configures the byte cache for retrieved parts.
type Cache struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	TTL       Duration `toml:"ttl"`
	RedisAddr string   `toml:"redis_addr"`
	Namespace string   `toml:"namespace"`
}

// Parts names the docbook parts holding each kind of table.
type Parts struct {
	Modules  string `toml:"modules"`  // module, macro and IOD sections
	Sops     string `toml:"sops"`     // SOP class tables
	Registry string `toml:"registry"` // UID registry
}

// Tables names the table ids read from each part.
type Tables struct {
	Attributes []AttributeSource `toml:"attributes"`
	Uids       string            `toml:"uids"`
	Sops       []string          `toml:"sops"`
}

// AttributeSource is one part and the attribute tables read from it.
// Sources are read in order; later entries refine earlier ones.
type AttributeSource struct {
	Part string   `toml:"part"`
	IDs  []string `toml:"ids"`
}

// Duration decodes TOML strings such as "720h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration for the published standard.
func Default() Config {
	return Config{
		Source: DefaultSource,
		Cache: Cache{
			Backend:   cache.BackendFile,
			TTL:       Duration{DefaultCacheTTL},
			RedisAddr: "localhost:6379",
			Namespace: "dcmdict:",
		},
		Parts: Parts{
			Modules:  dictionary.DefaultModulesPart,
			Sops:     dictionary.DefaultSopsPart,
			Registry: dictionary.DefaultRegistryPart,
		},
		Tables: Tables{
			Attributes: attributeSources(dictionary.DefaultAttributeSources()),
			Uids:       dictionary.DefaultUidTable,
			Sops:       dictionary.DefaultSopTables(),
		},
	}
}

func attributeSources(srcs []dictionary.Source) []AttributeSource {
	out := make([]AttributeSource, len(srcs))
	for i, s := range srcs {
		out[i] = AttributeSource{Part: s.Part, IDs: s.Tables}
	}
	return out
}

// Load reads a TOML file on top of [Default]. Keys absent from the file keep
// their default values. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := Decode(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses TOML data into cfg and validates the result.
func Decode(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	return cfg.Validate()
}

// Validate checks that the configuration can drive a run.
func (c Config) Validate() error {
	if err := errors.ValidateSource(c.Source); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendMemory, cache.BackendRedis, cache.BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	for _, p := range []string{c.Parts.Modules, c.Parts.Sops, c.Parts.Registry} {
		if err := errors.ValidatePartName(p); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parts")
		}
	}
	if len(c.Tables.Attributes) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "no attribute tables configured")
	}
	for _, src := range c.Tables.Attributes {
		if err := errors.ValidatePartName(src.Part); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "tables.attributes")
		}
		if len(src.IDs) == 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "no table ids for attribute source %s", src.Part)
		}
	}
	if c.Tables.Uids == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "no UID table configured")
	}
	if len(c.Tables.Sops) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "no SOP class tables configured")
	}
	return nil
}

// CacheOptions converts the cache section for [cache.New].
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:   c.Cache.Backend,
		Dir:       c.Cache.Dir,
		TTL:       c.Cache.TTL.Duration,
		RedisAddr: c.Cache.RedisAddr,
		Namespace: c.Cache.Namespace,
	}
}

// ResolverOptions converts the part and table layout for
// [dictionary.NewResolver]. Filters and the logger are left to the caller.
func (c Config) ResolverOptions() dictionary.Options {
	srcs := make([]dictionary.Source, len(c.Tables.Attributes))
	for i, a := range c.Tables.Attributes {
		srcs[i] = dictionary.Source{Part: a.Part, Tables: a.IDs}
	}
	return dictionary.Options{
		ModulesPart:      c.Parts.Modules,
		SopsPart:         c.Parts.Sops,
		RegistryPart:     c.Parts.Registry,
		AttributeSources: srcs,
		UidTable:         c.Tables.Uids,
		SopTables:        c.Tables.Sops,
	}
}
