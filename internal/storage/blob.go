package storage

import "io"

// BlobStore retains uploaded source documents for audit.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}
