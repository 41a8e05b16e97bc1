package mongodb

import "marketplace_refunds/internal/dao/repository"

// The DAOs report storage conditions with the repository sentinels so callers never import this package.
var (
	ErrNotFound     = repository.ErrNotFound
	ErrDuplicateKey = repository.ErrDuplicateKey
)
