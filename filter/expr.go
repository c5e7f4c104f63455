// Package filter narrows catalog results with user supplied boolean
// expressions written in the expr language.
//
// Every top level field of a record is available as a variable, for example
// vote_average, popularity or original_language. Helper functions cover the
// fields that need interpretation:
//
//	vote_average >= 7 && hasGenre(18)
//	year() >= 2015 && not hasText(title(), "christmas")
//	lower(title()) contains "squid"
//	hasOriginCountry("KR") || original_language == "ko"
//
// The title variable is shadowed by the title() helper, which also covers the
// name field of TV shows.
package filter

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/moviemate/tmdb"
)

// DefaultCacheSize is the number of compiled programs kept by NewExprCompiler
const DefaultCacheSize = 32

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	custom     map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache sets the number of compiled programs to keep. Zero disables caching.
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache[CompiledFilter](size)
		} else {
			c.cache = nil
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
		maps.Copy(c.custom, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: createHelperFunctions(),
		custom:      make(map[string]any),
		cache:       newLRUCache[CompiledFilter](DefaultCacheSize),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	custom      map[string]any
	cache       *lruCache[CompiledFilter]
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// record fields are unknown until evaluation
	program, err := expr.Compile(expression,
		expr.Env(c.helperFuncs),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	f := &exprFilter{
		expression: expression,
		program:    program,
		custom:     c.custom,
	}

	if c.cache != nil {
		c.cache.Put(expression, f)
	}

	return f, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate evaluates the filter against a record
func (f *exprFilter) Evaluate(record tmdb.MediaRecord) bool {
	ok, _ := f.Check(record)
	return ok
}

// Check evaluates the filter and returns an EvaluationError when the
// expression cannot be run against record, for example a missing field used
// in a comparison
func (f *exprFilter) Check(record tmdb.MediaRecord) (bool, error) {
	result, err := expr.Run(f.program, createRuntimeEnvironment(record, f.custom))
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			Title:      record.Title(),
			Err:        err,
		}
	}
	matched, ok := result.(bool)
	if !ok {
		return false, &EvaluationError{
			Expression: f.expression,
			Title:      record.Title(),
			Err:        fmt.Errorf("expression returned %T, not bool", result),
		}
	}
	return matched, nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// Apply returns the records matching f, keeping their order
func Apply(f Filter, records []tmdb.MediaRecord) []tmdb.MediaRecord {
	if f == nil {
		return records
	}

	out := make([]tmdb.MediaRecord, 0, len(records))
	for _, r := range records {
		if f.Evaluate(r) {
			out = append(out, r)
		}
	}
	return out
}

// createHelperFunctions returns typed stand-ins for every helper so the
// compiler can check calls before any record is known
func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 16)
	addHelperFunctions(funcs)
	addRecordHelpers(funcs, tmdb.MediaRecord{})
	return funcs
}

// addHelperFunctions adds the record independent helpers
func addHelperFunctions(env map[string]any) {
	env["hasText"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["hasPrefix"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
	env["parseDate"] = func(dateStr string) time.Time {
		t, _ := time.Parse(time.DateOnly, dateStr)
		return t
	}
	env["daysSince"] = func(t time.Time) int {
		return int(time.Since(t).Hours() / 24)
	}
	env["now"] = time.Now
}

// addRecordHelpers adds helpers bound to one record
func addRecordHelpers(env map[string]any, record tmdb.MediaRecord) {
	genres := record.GenreIDs()
	year, _ := strconv.Atoi(record.Year())

	env["hasGenre"] = func(id int) bool {
		return slices.Contains(genres, id)
	}
	env["year"] = func() int {
		return year
	}
	env["title"] = record.Title
	env["released"] = func() time.Time {
		t, _ := time.Parse(time.DateOnly, record.ReleaseDate())
		return t
	}
	env["rating"] = record.VoteAverage
	env["hasOriginCountry"] = record.HasOriginCountry
}

// createRuntimeEnvironment exposes the record fields and the helpers bound to it
func createRuntimeEnvironment(record tmdb.MediaRecord, custom map[string]any) map[string]any {
	env := make(map[string]any, len(record)+len(custom)+16)
	maps.Copy(env, record)
	addHelperFunctions(env)
	addRecordHelpers(env, record)
	maps.Copy(env, custom)
	return env
}
