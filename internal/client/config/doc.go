// Package config loads runtime configuration for the neuroresume CLI.
//
// Values are layered: built-in defaults, then an optional JSON file chosen
// with -c/-config (or the CONFIG environment variable), then command-line
// flags. Later sources win.
//
//	-a string   base URL of the API server
//	-p string   API route prefix
//	-t int      per-request timeout in seconds
//
// JSON file:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "api_prefix": "/api/v1",
//	  "request_timeout": "90s"
//	}
package config
