package store

import "errors"

// ErrShardNotFound indicates no record exists for the shard.
var ErrShardNotFound = errors.New("shard not found")
