// Package testutil provides testing utilities for knn.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random number generator and generators for
// synthetic labelled datasets with known structure.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.UniformVectors(100, 4)   // uniform [0, 1)
//
// # Labelled Datasets
//
//	// Three well-separated clusters labelled "c0", "c1", "c2".
//	d := rng.ClusteredDataset(90, 2, 3, 0.1)
//
//	// Points on a line whose labels alternate in runs of width w.
//	d := testutil.StripedDataset(n, w)
package testutil
