package client

import "time"

type Token struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresIn   int64     `json:"expiresIn"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RegisterRequest carries the sign-up form. Optional fields may be empty.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Location  string `json:"location,omitempty"`
}

type AuthResult struct {
	Token Token `json:"token"`
	User  User  `json:"user"`
}

type Session struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Status       string     `json:"status"`
	Language     string     `json:"language"`
	Progress     int        `json:"progress"`
	MessageCount int        `json:"messageCount"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

type SessionPage struct {
	Items      []Session `json:"items"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	Total      int       `json:"total"`
	TotalPages int       `json:"totalPages"`
	HasMore    bool      `json:"hasMore"`
}

// ListSessionsParams filters a session listing. Zero values use server defaults.
type ListSessionsParams struct {
	Page     int
	PageSize int
	Status   string
}

type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Seq       int       `json:"seq"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type Turn struct {
	UserMessage      Message `json:"userMessage"`
	AssistantMessage Message `json:"assistantMessage"`
	Progress         int     `json:"progress"`
	MessageCount     int     `json:"messageCount"`
}

type Artifact struct {
	SessionID   string    `json:"sessionId"`
	Format      string    `json:"format"`
	Template    string    `json:"template"`
	Language    string    `json:"language"`
	MIMEType    string    `json:"mimeType"`
	Filename    string    `json:"filename"`
	SizeBytes   int64     `json:"sizeBytes"`
	Checksum    string    `json:"checksum"`
	Version     int       `json:"version"`
	Content     string    `json:"content"`
	Session     Session   `json:"session"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// RegenerateOptions selects a new rendering. Empty fields keep the current one.
type RegenerateOptions struct {
	Format   string `json:"format,omitempty"`
	Template string `json:"template,omitempty"`
	Language string `json:"language,omitempty"`
}

// Document is a downloaded resume file.
type Document struct {
	Filename string
	MIMEType string
	Content  []byte
}
