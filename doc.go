// Package knn provides k-nearest-neighbor classification over labelled
// numeric datasets, together with a hold-out sweep that picks the best k.
//
// # Quick Start
//
//	data, _ := dataset.New([]dataset.Record[string]{
//	    {Features: []float64{1, 1}, Label: "red"},
//	    {Features: []float64{9, 9}, Label: "blue"},
//	    // ...
//	})
//	m, _ := knn.New(data, knn.WithMetric(distance.MetricManhattan))
//
//	p, _ := m.Predict(ctx, []float64{2, 1}, kspec.MustParse("3"))
//	fmt.Println(p.Label)
//	for _, v := range p.Votes {
//	    fmt.Println(v.Label, v.Count, v.Share)
//	}
//
// # Choosing k
//
//	res, _ := m.Search(kspec.MustParse("1-15,2")).TestFraction(0.25).Execute(ctx)
//	fmt.Println(res.Best.K, res.Best.Accuracy)
//
// The dataset is split once per sweep. Every candidate k is scored on the
// same split and the smallest k with the highest accuracy wins.
//
// # Determinism
//
// Neighbors at equal distance are ranked by their position in the dataset,
// vote ties go to the label whose nearest supporting neighbor ranks first,
// and every split policy is a fixed function of the dataset, the fraction
// and (for dataset.Shuffled) the seed. Identical inputs give identical
// outputs regardless of the worker count.
//
// # Errors
//
// Argument errors are detected before any classification and can be
// matched with errors.Is against ErrInvalidK, ErrEmptySearchSpace,
// ErrSplitWouldBeEmpty and ErrSchemaMismatch, or with errors.As against
// *ErrDimensionMismatch.
package knn
