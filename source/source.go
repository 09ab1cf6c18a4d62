// Package source opens dataset inputs named by URI and transparently
// decompresses them.
//
// Supported locations:
//
//	data.csv              local path (relative or absolute)
//	-                     standard input
//	s3://bucket/key       Amazon S3 (or any endpoint configured for it)
//	minio://bucket/key    MinIO
//
// Compression is chosen by the last extension (.gz, .zst/.zstd, .lz4). When
// the name carries none of these, the first bytes are sniffed for the gzip,
// zstd and lz4 frame magics.
package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/knn/blobstore"
	"github.com/hupe1980/knn/blobstore/minio"
	"github.com/hupe1980/knn/blobstore/s3"
)

var (
	// ErrUnsupportedScheme is returned for URIs whose scheme has no store.
	ErrUnsupportedScheme = errors.New("unsupported scheme")

	// ErrInvalidURI is returned for URIs missing a bucket or key.
	ErrInvalidURI = errors.New("invalid uri")
)

// Stdin is the location name for standard input.
const Stdin = "-"

// Location is a parsed input URI.
type Location struct {
	Scheme string // "" for local paths and stdin
	Bucket string
	Key    string // object key, or the local path
}

// IsStdin reports whether the location is standard input.
func (l Location) IsStdin() bool { return l.Scheme == "" && l.Key == Stdin }

func (l Location) String() string {
	if l.Scheme == "" {
		return l.Key
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Key
}

// Parse splits uri into scheme, bucket and key. Anything without "://" is a
// local path.
func Parse(uri string) (Location, error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		if uri == "" {
			return Location{}, fmt.Errorf("%w: empty", ErrInvalidURI)
		}
		return Location{Key: uri}, nil
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if scheme == "" || bucket == "" || key == "" {
		return Location{}, fmt.Errorf("%w: %q (expected scheme://bucket/key)", ErrInvalidURI, uri)
	}
	return Location{Scheme: strings.ToLower(scheme), Bucket: bucket, Key: key}, nil
}

// StoreFactory returns the store serving one bucket.
type StoreFactory func(ctx context.Context, bucket string) (blobstore.BlobStore, error)

// S3Factory builds stores from the default AWS configuration.
func S3Factory(optFns ...s3.Option) StoreFactory {
	return func(ctx context.Context, bucket string) (blobstore.BlobStore, error) {
		return s3.New(ctx, bucket, optFns...)
	}
}

// MinIOFactory builds stores for the MinIO server described by cfg.
func MinIOFactory(cfg minio.Config) StoreFactory {
	return func(_ context.Context, bucket string) (blobstore.BlobStore, error) {
		return minio.New(cfg, bucket, "")
	}
}

// Options configures an Opener.
type Options struct {
	// Stdin is read for the "-" location. Defaults to os.Stdin.
	Stdin io.Reader

	// Stores maps URI schemes to store factories. Defaults to "s3" and
	// "minio" factories with default settings.
	Stores map[string]StoreFactory

	// Local serves paths without a scheme. Defaults to a LocalStore
	// resolving against the working directory.
	Local blobstore.BlobStore
}

// Opener resolves URIs to readers.
type Opener struct {
	opts Options
}

// New returns an Opener.
func New(optFns ...func(*Options)) *Opener {
	opts := Options{
		Stdin: os.Stdin,
		Stores: map[string]StoreFactory{
			"s3":    S3Factory(),
			"minio": MinIOFactory(minio.Config{Endpoint: "localhost:9000"}),
		},
		Local: blobstore.NewLocalStore(""),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Opener{opts: opts}
}

func (o *Opener) store(ctx context.Context, loc Location) (blobstore.BlobStore, error) {
	if loc.Scheme == "" {
		return o.opts.Local, nil
	}
	factory, ok := o.opts.Stores[loc.Scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, loc.Scheme)
	}
	return factory(ctx, loc.Bucket)
}

// Open returns the decompressed contents of uri. The caller must close it.
func (o *Opener) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	loc, err := Parse(uri)
	if err != nil {
		return nil, err
	}

	var raw io.ReadCloser
	if loc.IsStdin() {
		raw = io.NopCloser(o.opts.Stdin)
	} else {
		store, err := o.store(ctx, loc)
		if err != nil {
			return nil, err
		}
		blob, err := store.Open(ctx, loc.Key)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", loc, err)
		}
		raw = blob
	}

	r, err := Decompress(loc.Key, raw)
	if err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("open %s: %w", loc, err)
	}
	return r, nil
}

// Put writes data to uri. Standard input is not a valid destination.
func (o *Opener) Put(ctx context.Context, uri string, data []byte) error {
	loc, err := Parse(uri)
	if err != nil {
		return err
	}
	if loc.IsStdin() {
		return fmt.Errorf("%w: cannot write to %q", ErrInvalidURI, Stdin)
	}
	store, err := o.store(ctx, loc)
	if err != nil {
		return err
	}
	return store.Put(ctx, loc.Key, data)
}

// Compression identifies a stream codec.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	LZ4
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// ByExtension returns the compression implied by name's extension.
func ByExtension(name string) Compression {
	switch strings.ToLower(path.Ext(name)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	default:
		return None
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Sniff returns the compression whose frame magic prefixes head.
func Sniff(head []byte) Compression {
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd
	case bytes.HasPrefix(head, lz4Magic):
		return LZ4
	case bytes.HasPrefix(head, gzipMagic):
		return Gzip
	default:
		return None
	}
}

// Decompress wraps rc in the decoder chosen by name, or by sniffing when the
// name has no compression extension. Closing the result closes rc.
func Decompress(name string, rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)

	c := ByExtension(name)
	if c == None {
		head, _ := br.Peek(4)
		c = Sniff(head)
	}

	var (
		r   io.Reader
		dec io.Closer
	)
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		r, dec = zr, zr
	case Zstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		zrc := zr.IOReadCloser()
		r, dec = zrc, zrc
	case LZ4:
		r = lz4.NewReader(br)
	default:
		r = br
	}

	return &readCloser{Reader: r, closers: []io.Closer{dec, rc}}, nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var errs []error
	for _, c := range r.closers {
		if c != nil {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
