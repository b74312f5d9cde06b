package confer

import (
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"
)

// descriptorCache memoizes the struct-tag reflection and validation
// pass per Go type: Bind is meant to be called once per bound type
// (typically from a package-level var or an init function), and every
// later Bind[T] call for the same T without WithInit options reuses the
// descriptor rather than re-walking struct tags and re-validating.
var descriptorCache = mustNewCache()

func mustNewCache() *lru.Cache[reflect.Type, []fieldSpec] {
	c, err := lru.New[reflect.Type, []fieldSpec](256)
	if err != nil {
		// Only fails for a non-positive size, which is a fixed literal
		// here and can never happen.
		panic(err)
	}
	return c
}

// fieldsFor returns the cached field descriptor for t, building and
// validating it on first use. A call with inits always builds a fresh
// descriptor, since initializers are per-call options, and does not
// store it in the cache. The returned slice is shared and must be
// treated as read-only.
func fieldsFor(t reflect.Type, inits map[string]func() any) []fieldSpec {
	if len(inits) > 0 {
		return buildFields(t, inits)
	}
	if cached, ok := descriptorCache.Get(t); ok {
		return cached
	}
	fields := buildFields(t, inits)
	descriptorCache.Add(t, fields)
	return fields
}
