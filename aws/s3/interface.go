package s3

import (
	"context"
	"errors"
	"io"
)

var ErrKeyNotFound = errors.New("key not found")

type BasicClient interface {
	Lister
	Getter
	Putter
	Uploader
	Deleter
	Bucket() string
}

// Client adds operations over whole key prefixes.
type Client interface {
	BasicClient
	PrefixDeleter
	PresenceChecker
}

type Lister interface {
	// List returns all keys starting with prefix in lexical order.
	List(ctx context.Context, prefix string) (keys []string, err error)
}

type Getter interface {
	// Get returns ErrKeyNotFound if the given key doesn't exist.
	Get(ctx context.Context, key string) (data []byte, err error)
}

type Putter interface {
	Put(ctx context.Context, key string, data []byte) (err error)
}

// Uploader streams body to key. The object becomes visible only once the upload completes.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader) (err error)
}

type Deleter interface {
	Delete(ctx context.Context, keys ...string) error
}

type PrefixDeleter interface {
	// DeletePrefix removes every object under prefix and returns how many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

type PresenceChecker interface {
	// Missing returns the keys for which no object exists with the key as prefix.
	Missing(ctx context.Context, keys []string) ([]string, error)
}
