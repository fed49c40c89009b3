// Package publish defines the object-storage collaborator contract and the
// storage key layout shared by every published artifact.
package publish

import (
	"context"
	"fmt"
)

// Store uploads bytes to durable storage and returns their public location.
// Implementations are external collaborators; only the filesystem store for
// development and tests ships with this module.
type Store interface {
	Put(ctx context.Context, data []byte, key, contentType string) (string, error)
}

// BuildKey produces the canonical key layout, partitioned by user then book
// for isolation and easy bulk deletion.
func BuildKey(userID, bookID, filename string) string {
	return fmt.Sprintf("users/%s/books/%s/%s", userID, bookID, filename)
}
