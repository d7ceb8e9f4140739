// Package testutil provides testing utilities for fieldarray.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded RNG for reproducible random assignments and a
// brute-force reference model to check scans against.
//
//	rng := testutil.NewRNG(4711)
//	model := rng.Assignments(1000, 1<<20, 16)
//	for i, v := range model {
//	    _ = fa.Set(i, v)
//	}
//	want := model.NextSet(42)
package testutil
