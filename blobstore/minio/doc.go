// Package minio reads datasets from and writes reports to a MinIO server, or
// any S3-compatible service reachable through minio-go.
//
//	store, err := minio.New(minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	}, "datasets", "uci/")
//
//	blob, err := store.Open(ctx, "iris.csv.gz")
//
// Objects are streamed; parsing starts before the download finishes. Without
// explicit keys the client falls back to MINIO_ACCESS_KEY/MINIO_SECRET_KEY
// from the environment.
package minio
