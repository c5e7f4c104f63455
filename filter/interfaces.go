package filter

import (
	"github.com/s0up4200/moviemate/tmdb"
)

// Filter decides whether a catalog record should be kept
type Filter interface {
	// Evaluate reports whether the record matches. Evaluation errors count as no match.
	Evaluate(record tmdb.MediaRecord) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Check evaluates the record and reports why evaluation failed, if it did
	Check(record tmdb.MediaRecord) (bool, error)

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}
