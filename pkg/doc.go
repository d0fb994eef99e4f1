// Package pkg provides the core libraries for semiframes.
//
// # Overview
//
// Semiframes enumerates finite semitopologies: families of subsets of
// {1..n} that are closed under union and contain {1..n}. Every isomorphism
// class is produced exactly once through canonical augmentation, and the
// results can be filtered by first-order formulas over points and opens.
//
// # Architecture
//
// The typical data flow:
//
//	starting family
//	      ↓
//	 [search] (extend by one union-compatible set, keep canonical children)
//	      ↓
//	 [canon] (canonical form via [perm] and the incidence-graph labeler,
//	          memoized by [cache])
//	      ↓
//	 [formula] predicate (optional)
//	      ↓
//	 [sink] (text files, console, Redis, MongoDB)
//
// # Quick Start
//
//	opts := search.DefaultOptions()
//	opts.Semiframes = true
//	out := sink.Collect()
//	res, err := search.NewRunner(nil).Run(ctx, 4, opts, out)
//	// res.Found == 138
//
// # Main Packages
//
// [family] - The bitmask family type, its text notation and closure checks.
//
// [perm] - Point permutations and their action on bitmasks.
//
// [canon] - Canonical forms and canonical parents.
//
// [cache] - Bounded memo of canonical forms.
//
// [search] - Sequential and parallel enumeration strategies.
//
// [formula] - Parser and model checker for the query language.
//
// [sink] - Output destinations and the ordered write stream.
//
// [render/hasse] - Hasse diagrams of a family through Graphviz.
//
// [config] - TOML configuration shared by the CLI and the server.
//
// [observability] - Hooks for metrics on searches, caches and sinks.
//
// [errors] - Structured error codes.
//
// [buildinfo] - Version information injected at build time.
package pkg
