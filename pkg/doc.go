// Package pkg provides the core libraries of dcmdict, the DICOM dictionary
// extractor.
//
// # Overview
//
// dcmdict reads the docbook edition of the DICOM standard and extracts the
// data dictionary, the UID registry and every SOP class with its IOD, modules
// and nested attributes. The pkg directory is organized into four areas:
//
//  1. Retrieval - [source], [cache] and [docbook] (parts on disk or over HTTP)
//  2. Domain logic - [dictionary] (tables, resolvers, filters)
//  3. Output - [report] (text, tree, JSON, DOT, SVG and MongoDB)
//  4. Orchestration - [pipeline] and [config]
//
// # Architecture
//
// The data flow of one run:
//
//	docbook parts (local directory or published edition)
//	         ↓
//	    [source] Fetcher (HTTP with retries, byte cache)
//	         ↓
//	    [docbook] Library (parsed XML documents, one per part)
//	         ↓
//	    [dictionary] Resolver (attributes, UIDs, SOP classes, IODs, modules)
//	         ↓
//	    [dictionary] Filtered (reachable dictionary)
//	         ↓
//	    [report] renderers
//
// # Quick Start
//
//	cfg := config.Default()
//	c, _ := cache.New(ctx, cfg.CacheOptions())
//	runner := pipeline.NewRunner(cfg, c, nil, nil)
//	defer runner.Close()
//
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    SopPatterns: []string{"1.2.840.10008.5.1.4.1.1.*"},
//	    Formats:     []string{pipeline.FormatTree},
//	})
//
// # Main Packages
//
// [dictionary] - Table parsing and resolution. Attribute elements nest through
// include references and sequences; references that lead back into a macro
// being expanded are cut so every module is finite.
//
// [docbook] - Docbook XML access: part documents, tables by id, sections by
// id, and the text and link extraction shared by all parsers.
//
// [source] - Part retrieval from a local directory or a base URL, with the
// byte cache in front of remote parts.
//
// [cache] - Byte caches: file (CLI default), memory, Redis and a no-op cache.
//
// [report] - Output of the reachable dictionary.
//
// [pipeline] - One complete run shared by the CLI and the HTTP server.
//
// [config] - TOML configuration with defaults for the published standard.
//
// [errors] - Error codes and input validation.
//
// [observability] - Hooks for runs, resolution, cache and HTTP events.
//
// [httputil] - Retry helpers for HTTP retrieval.
//
// # Testing
//
//	go test ./pkg/...
//
// [source]: https://pkg.go.dev/github.com/matzehuels/dcmdict/pkg/source
// [cache]: https://pkg.go.dev/github.com/matzehuels/dcmdict/pkg/cache
// [docbook]: https://pkg.go.dev/github.com/matzehuels/dcmdict/pkg/docbook
// [dictionary]: https://pkg.go.dev/github.com/matzehuels/dcmdict/pkg/dictionary
// [report]: https://pkg.go.dev/github.com/matzehuels/dcmdict/pkg/report
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/dcmdict/pkg/pipeline
// [config]: https://pkg.go.dev/github.com/matzehuels/dcmdict/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/dcmdict/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/dcmdict/pkg/observability
// [httputil]: https://pkg.go.dev/github.com/matzehuels/dcmdict/pkg/httputil
package pkg
