// Package blobstore provides storage abstraction for knn's input datasets and
// output reports.
//
// BlobStore is the interface for reading and writing whole blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem, atomic writes via rename
//   - MemoryStore: In-memory, for tests
//   - s3.Store: Amazon S3 with parallel ranged downloads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)     // Open for reading
//	    Put(ctx, name, data) error        // Atomic write
//	}
package blobstore
