// Package codec encodes machine-readable reports.
//
// Both built-in codecs produce standard JSON and differ only in speed and
// dependency footprint. Reports carry no trace of the codec that wrote them,
// so either can read the other's output.
package codec

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnknownCodec is returned by Parse for unsupported names.
var ErrUnknownCodec = errors.New("unknown codec")

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	MarshalIndent(v any, prefix, indent string) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used for reports unless one is chosen explicitly.
var Default Codec = GoJSON{}

// Parse returns the built-in codec called name. The empty string selects
// Default.
func Parse(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return Default, nil
	case "json", "encoding/json":
		return JSON{}, nil
	case "go-json", "gojson":
		return GoJSON{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// Encode writes v to w as one line, or as an indented document when indent
// is non-empty. Either form ends with a newline.
func Encode(w io.Writer, c Codec, v any, indent string) error {
	if c == nil {
		c = Default
	}

	var (
		b   []byte
		err error
	)
	if indent != "" {
		b, err = c.MarshalIndent(v, "", indent)
	} else {
		b, err = c.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", c.Name(), err)
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// MustMarshal is a helper for tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
