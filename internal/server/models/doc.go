// Package models contains the server-side domain records persisted by the
// repositories: users, revoked tokens, interview sessions, their messages
// and resume artifacts.
package models
