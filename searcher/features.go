package searcher

import (
	"context"
	"slices"

	"github.com/hupe1980/knn/dataset"
	"github.com/hupe1980/knn/distance"
	"github.com/hupe1980/knn/kspec"
)

// Step is one round of greedy forward feature selection: the columns chosen
// so far (in the order they were added) and the accuracy they reach.
type Step struct {
	K        int
	Columns  []int
	Correct  int
	Total    int
	Accuracy float64
}

// SelectFeatures runs greedy forward feature selection for every candidate k.
//
// Starting from no columns, each round tries adding every remaining column,
// keeps the one with the highest test accuracy (the lowest column index on
// ties) and records a Step. Rounds continue until every column is selected,
// so each k yields Dim() steps. Columns are indexes into the split's
// feature vectors.
func SelectFeatures[L comparable](ctx context.Context, split *dataset.Split[L], fn distance.Func, candidates kspec.Spec, optFns ...func(*Options)) ([]Step, error) {
	if err := Validate(split, candidates); err != nil {
		return nil, err
	}
	opts := buildOptions(optFns)
	opts.OnEvaluate = nil

	dim := split.Train.Dim()
	var steps []Step

	for _, k := range candidates.Values() {
		var selected []int
		avail := make([]int, dim)
		for i := range avail {
			avail[i] = i
		}

		for len(avail) > 0 {
			bestPos := -1
			var bestEntry Entry

			for pos, col := range avail {
				cols := append(slices.Clone(selected), col)
				train, err := split.Train.Project(cols)
				if err != nil {
					return nil, err
				}
				test, err := split.Test.Project(cols)
				if err != nil {
					return nil, err
				}

				entries, err := evaluate(ctx, train, test, fn, []int{k}, opts)
				if err != nil {
					return nil, err
				}
				if bestPos < 0 || entries[0].Correct > bestEntry.Correct {
					bestPos, bestEntry = pos, entries[0]
				}
			}

			selected = append(selected, avail[bestPos])
			avail = slices.Delete(avail, bestPos, bestPos+1)

			steps = append(steps, Step{
				K:        k,
				Columns:  slices.Clone(selected),
				Correct:  bestEntry.Correct,
				Total:    bestEntry.Total,
				Accuracy: bestEntry.Accuracy,
			})
			opts.Logger.DebugContext(ctx, "feature selected",
				"k", k,
				"columns", selected,
				"accuracy", bestEntry.Accuracy,
			)
		}
	}
	return steps, nil
}
