// Package dictionary resolves the DICOM data dictionary from docbook parts.
//
// The resolver reads four kinds of tables:
//
//   - attribute registries (part06, part07) giving every standard attribute
//     its name, keyword, VR and VM
//   - module and macro tables (part03) listing attribute elements, nested
//     with leading '>' markers and including other tables by cross-reference
//   - IOD tables (part03) listing modules with their usage
//   - the UID registry (part06) and SOP class tables (part04)
//
// Resolution is lazy and memoized: a SOP class row resolves its IOD, which
// resolves its modules, which resolve their attribute tables. Every cache
// lives in a [Resolver], so independent runs never share state.
//
// Basic usage:
//
//	lib := docbook.NewLibrary(fetcher, logger)
//	r, err := dictionary.NewResolver(lib, dictionary.Options{Logger: logger})
//	if err != nil {
//	    return err
//	}
//	result, err := r.Resolve(ctx)
//	for _, sop := range result.Filtered.Sops {
//	    fmt.Println(sop.Uid.Value, sop.Iod.Name)
//	}
//
// # Cycles
//
// Macro tables include each other, and functional group macros include
// tables that lead back to themselves. While a table is being expanded it is
// marked active; a cross-reference to an active table splices nothing.
// Such a cut expansion depends on the tables above it, so it is cached only
// when it was resolved at the top of the path, and a table resolves to the
// same tree regardless of what was resolved before it.
// Traversals ([Walk], [Trail]) additionally track the origin tables on the
// current path so that no walk can revisit a table it is already inside.
package dictionary
