package shardmanager

import "errors"

var (
	// ErrShutdown indicates the manager has been shut down and rejects new work.
	ErrShutdown = errors.New("shard manager is shut down")

	// ErrInvalidShardID indicates a shard id outside 0 <= id < shardsTotal.
	ErrInvalidShardID = errors.New("invalid shard id")

	// ErrInvalidConfig indicates a configuration that can never work, detected before
	// any network activity.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrAuthentication indicates the remote service rejected the credentials.
	// Credentials are shared by every shard, so this is fatal to the whole manager.
	ErrAuthentication = errors.New("authentication failed")

	// ErrInterrupted indicates a build was abandoned because the manager is shutting down.
	ErrInterrupted = errors.New("interrupted by shutdown")

	// ErrAlreadyLoggedIn indicates Login was called more than once.
	ErrAlreadyLoggedIn = errors.New("already logged in")
)
