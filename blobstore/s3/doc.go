// Package s3 reads datasets from and writes reports to Amazon S3.
//
//	store, err := s3.New(ctx, "datasets", s3.WithPrefix("uci/"), s3.WithRegion("eu-west-1"))
//	blob, err := store.Open(ctx, "iris.csv.zst")
//
// Objects are fetched with parallel ranged GETs through the SDK transfer
// manager and held in memory; reports are written with multipart uploads
// once they exceed the part size. WithEndpoint and WithPathStyle target
// S3-compatible services such as LocalStack.
package s3
