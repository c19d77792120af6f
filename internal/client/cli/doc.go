// Package cli provides the interactive neuroresume command-line client.
//
// The REPL drives an interview end to end against a running server:
// register or log in, open a session, answer questions with "say", then
// complete the session and download the generated resume.
//
// The REPL is started via App.Run, which blocks until the user exits.
package cli
