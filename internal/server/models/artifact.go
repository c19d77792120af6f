package models

import "time"

// Artifact describes the rendered resume of a completed session. The bytes
// themselves live in a blob store under StorageKey.
type Artifact struct {
	ID         string
	SessionID  string
	UserID     string
	StorageKey string
	MIMEType   string
	Filename   string
	SizeBytes  int64
	Checksum   string
	Template   string
	Format     string
	Language   Language
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
