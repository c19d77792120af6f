// Package blobstore keeps rendered resume bytes outside the artifact table.
package blobstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store saves and loads opaque blobs by key. Get returns
// common.ErrorNotFound for an unknown key.
type Store interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Presigner is implemented by stores that can hand out direct download URLs.
type Presigner interface {
	PresignGet(ctx context.Context, key string, filename string) (string, time.Time, error)
}

// NewStorageKey returns a fresh key for an artifact of the given session.
// Every render gets its own key so a failed replacement never clobbers the
// bytes the current artifact row points to.
func NewStorageKey(userID, sessionID, ext string) string {
	return fmt.Sprintf("resumes/%s/%s/%v.%s", userID, sessionID, uuid.New(), ext)
}
