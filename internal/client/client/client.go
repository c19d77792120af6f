package client

import "context"

// Client is the API contract the CLI depends on.
type Client interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	Refresh(ctx context.Context) (*Token, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*User, error)
	CreateSession(ctx context.Context, language string) (*Session, error)
	ListSessions(ctx context.Context, p ListSessionsParams) (*SessionPage, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	SendMessage(ctx context.Context, sessionID, content string) (*Turn, error)
	History(ctx context.Context, sessionID string) ([]Message, error)
	Complete(ctx context.Context, sessionID string) (*Artifact, error)
	Regenerate(ctx context.Context, sessionID string, opts RegenerateOptions) (*Artifact, error)
	Download(ctx context.Context, sessionID string) (*Document, error)
	DownloadURL(ctx context.Context, sessionID string) (string, error)
	Health(ctx context.Context) error
	LoggedIn() bool
}
