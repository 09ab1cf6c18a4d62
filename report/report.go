// Package report renders predictions and k sweeps for people (text) and
// machines (JSON), and exports run metrics in the Prometheus text format.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/knn/classifier"
	"github.com/hupe1980/knn/codec"
	"github.com/hupe1980/knn/dataset"
	"github.com/hupe1980/knn/searcher"
)

// ErrUnknownFormat is returned for unsupported output formats.
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects how a report is rendered.
type Format int

const (
	Text Format = iota
	JSON
)

func (f Format) String() string {
	switch f {
	case Text:
		return "text"
	case JSON:
		return "json"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

// ParseFormat returns the Format named s. The empty string means Text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return Text, nil
	case "json":
		return JSON, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Set implements pflag.Value.
func (f *Format) Set(s string) error {
	v, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Type implements pflag.Value.
func (f *Format) Type() string { return "format" }

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error { return f.Set(string(text)) }

// Vote is one row of a prediction's vote table.
type Vote struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// Neighbor is one selected training record.
type Neighbor struct {
	Index    int     `json:"index"`
	Distance float64 `json:"distance"`
	Label    string  `json:"label"`
}

// Prediction is the report of a single classification.
type Prediction struct {
	K         int        `json:"k"`
	Metric    string     `json:"metric"`
	Query     []float64  `json:"query"`
	Label     string     `json:"label"`
	Votes     []Vote     `json:"votes"`
	Neighbors []Neighbor `json:"neighbors,omitempty"`
}

// NewPrediction builds a report from p, resolving neighbor labels in train.
func NewPrediction(p *classifier.Prediction[string], train *dataset.Dataset[string], metric string, query []float64) *Prediction {
	r := &Prediction{
		K:      p.K,
		Metric: metric,
		Query:  query,
		Label:  p.Label,
		Votes:  make([]Vote, len(p.Votes)),
	}
	for i, v := range p.Votes {
		r.Votes[i] = Vote{Label: v.Label, Count: v.Count, Share: v.Share}
	}
	for _, n := range p.Neighbors {
		r.Neighbors = append(r.Neighbors, Neighbor{Index: n.Index, Distance: n.Distance, Label: train.Label(n.Index)})
	}
	return r
}

// Entry is the accuracy of one candidate k.
type Entry struct {
	K        int     `json:"k"`
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
}

// Step is one round of feature selection.
type Step struct {
	K        int      `json:"k"`
	Columns  []string `json:"columns"`
	Correct  int      `json:"correct"`
	Total    int      `json:"total"`
	Accuracy float64  `json:"accuracy"`
}

// Search is the report of a k sweep.
type Search struct {
	Metric    string  `json:"metric"`
	Policy    string  `json:"policy"`
	TrainSize int     `json:"train_size"`
	TestSize  int     `json:"test_size"`
	Entries   []Entry `json:"entries"`
	Best      Entry   `json:"best"`
	Features  []Step  `json:"features,omitempty"`
}

// NewSearch builds a report from a sweep result.
func NewSearch(res *searcher.Result, metric, policy string) *Search {
	r := &Search{
		Metric:    metric,
		Policy:    policy,
		TrainSize: res.TrainSize,
		TestSize:  res.TestSize,
		Entries:   make([]Entry, len(res.Entries)),
		Best:      Entry(res.Best),
	}
	for i, e := range res.Entries {
		r.Entries[i] = Entry(e)
	}
	return r
}

// AddFeatures attaches feature-selection steps, naming each column with
// names[column].
func (r *Search) AddFeatures(steps []searcher.Step, names []string) {
	for _, s := range steps {
		cols := make([]string, len(s.Columns))
		for i, c := range s.Columns {
			cols[i] = names[c]
		}
		r.Features = append(r.Features, Step{
			K:        s.K,
			Columns:  cols,
			Correct:  s.Correct,
			Total:    s.Total,
			Accuracy: s.Accuracy,
		})
	}
}

// Writer renders reports in one format.
type Writer struct {
	format Format
	codec  codec.Codec
	indent string
}

// NewWriter returns a Writer. A nil codec uses codec.Default.
func NewWriter(format Format, c codec.Codec) *Writer {
	if c == nil {
		c = codec.Default
	}
	return &Writer{format: format, codec: c}
}

// Indent makes JSON output multi-line, indenting nested values by indent.
func (wr *Writer) Indent(indent string) *Writer {
	wr.indent = indent
	return wr
}

// Prediction writes r to w.
func (wr *Writer) Prediction(w io.Writer, r *Prediction) error {
	switch wr.format {
	case Text:
		return writePredictionText(w, r)
	case JSON:
		return wr.writeJSON(w, r)
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, wr.format)
	}
}

// Search writes r to w.
func (wr *Writer) Search(w io.Writer, r *Search) error {
	switch wr.format {
	case Text:
		return writeSearchText(w, r)
	case JSON:
		return wr.writeJSON(w, r)
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, wr.format)
	}
}

func (wr *Writer) writeJSON(w io.Writer, v any) error {
	return codec.Encode(w, wr.codec, v, wr.indent)
}
