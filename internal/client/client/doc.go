// Package client is a typed HTTP client for the neuroresume API.
//
// HTTPClient keeps the bearer token returned by Register/Login and sends it
// on every secured call. Non-2xx responses are decoded from the server's
// error envelope into *APIError; transport failures wrap ErrUnavailable and
// 401 responses match ErrUnauthorized via errors.Is.
package client
