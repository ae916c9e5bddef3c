// Package testutil provides testing utilities for kvgo.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe random number generator and
// helpers for generating random keys and payloads.
//
// # Random Data Generation
//
//	rng := testutil.NewRNG(seed)
//	blob := rng.Bytes(64)                    // random payload
//	key := rng.Word(8)                       // random key text
//	keys := testutil.UniqueKeys(rng, 100, 8) // distinct keys
//
// Seeding makes failures reproducible: rerunning a test with the same
// seed replays the same data.
package testutil
