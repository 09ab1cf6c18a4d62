package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

func writePredictionText(w io.Writer, r *Prediction) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "k value: %d |", r.K)
	for _, v := range r.Query {
		fmt.Fprintf(bw, " %s", strconv.FormatFloat(v, 'g', -1, 64))
	}
	fmt.Fprintln(bw)

	for _, v := range r.Votes {
		fmt.Fprintf(bw, "  %s: %d %.2f\n", v.Label, v.Count, v.Share)
	}
	fmt.Fprintf(bw, "label: %s\n", r.Label)
	return bw.Flush()
}

func writeSearchText(w io.Writer, r *Search) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "train size: %d test size: %d\n", r.TrainSize, r.TestSize)
	for _, e := range r.Entries {
		fmt.Fprintf(bw, "k %d %% %.2f (%d/%d)\n", e.K, e.Accuracy*100, e.Correct, e.Total)
	}
	fmt.Fprintf(bw, "best k: %d accuracy: %.2f%%\n", r.Best.K, r.Best.Accuracy*100)

	if len(r.Features) > 0 {
		fmt.Fprintln(bw, "feature selection:")
		for _, s := range r.Features {
			fmt.Fprintf(bw, "k %d %% %.2f cols: %s\n", s.K, s.Accuracy*100, strings.Join(s.Columns, " "))
		}
	}
	return bw.Flush()
}
