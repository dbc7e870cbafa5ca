/*
Package server implements msgpack IPC for trigger completion services.

The server reads msgpack-encoded requests from stdin and writes one
msgpack response per request to stdout. Every request carries an ID and an
action; the remaining fields depend on the action.

Suggestions for the word under the cursor:

	{"id": "req_001", "a": "suggest", "x": "Hello @Al", "p": 9}

	{"id": "req_001", "s": [{"t": "@", "d": "Ali"}, {"t": "@", "d": "Alireza"}], "n": 2, "t": 145}

Replacing the current word with a chosen suggestion:

	{"id": "req_002", "a": "replace", "x": "Hello @Al", "p": 9, "v": "@Ali", "sa": true}

	{"id": "req_002", "r": {"b": 3, "a": -1, "x": "Hello @Ali "}}

A cursor outside any trigger context answers with code 404 so clients can tell
it apart from a recognized trigger with no candidates, which answers with an
empty list. Resolver failures answer with 500, malformed requests with 400.

The "reload" action re-reads the config file and swaps the engine, "health"
answers with the number of configured triggers.

Messages are processed synchronously in arrival order, with timing info
(microseconds) included in suggest responses.
*/
package server

import (
	"github.com/parsisolution/autocomplete/pkg/suggest"
	"github.com/parsisolution/autocomplete/pkg/word"
)

// Actions understood by the server.
const (
	ActionSuggest = "suggest"
	ActionReplace = "replace"
	ActionReload  = "reload"
	ActionHealth  = "health"
)

// Request is the envelope for every action.
type Request struct {
	ID       string `msgpack:"id"`
	Action   string `msgpack:"a"`
	Text     string `msgpack:"x,omitempty"`
	Position int    `msgpack:"p,omitempty"`
	// replace only
	Value          string `msgpack:"v,omitempty"`
	RemoveTrailing bool   `msgpack:"rt,omitempty"`
	SpaceAfter     bool   `msgpack:"sa,omitempty"`
}

// SuggestResponse answers ActionSuggest.
type SuggestResponse struct {
	ID          string               `msgpack:"id"`
	Suggestions []suggest.Suggestion `msgpack:"s"`
	Count       int                  `msgpack:"n"`
	TimeTaken   int64                `msgpack:"t"`
}

// ReplaceResponse answers ActionReplace.
type ReplaceResponse struct {
	ID     string      `msgpack:"id"`
	Result word.Result `msgpack:"r"`
}

// StatusResponse answers ActionReload and ActionHealth, and announces readiness.
type StatusResponse struct {
	ID       string `msgpack:"id,omitempty"`
	Status   string `msgpack:"status"`
	Triggers int    `msgpack:"triggers,omitempty"`
}

// ErrorResponse holds basic error information for failed requests
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

// Error codes, borrowed from HTTP.
const (
	CodeBadRequest = 400
	CodeNotFound   = 404
	CodeInternal   = 500
)
