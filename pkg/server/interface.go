/*
Package server implements msgpack IPC for the glide and typing engine.

Messages are msgpack maps written back to back on stdin; responses are
written the same way to stdout. Every request names its operation and carries
a client chosen id that is echoed in the response, together with the
sequence number the server stamped on the request and the elapsed time in
microseconds.

# IPC

Typed suggestions:

	{"id": "r1", "op": "suggest", "p": "hel", "l": 5}
	{"id": "r1", "seq": 1, "st": "ok", "s": [{"w": "hell", "r": 1, "cf": 0.675, "k": "prefix", "src": "word"}], "c": 1, "t": 42}

Glide traces are points in the same coordinate space as the layout:

	{"id": "g1", "op": "glide", "pts": [[20, 30], [60, 30]], "l": 3}

Glide recognition runs on the engine's worker pool. When a newer trace is
answered first, the older one is answered with status "stale" and no
suggestions.

The layout must be sent before the first trace, either as key bounds or as a
generated QWERTY grid:

	{"id": "k1", "op": "layout", "subtype": "en_US", "keys": [{"c": "q", "l": 0, "t": 0, "r": 40, "b": 60}]}
	{"id": "k2", "op": "layout", "subtype": "en_US", "kw": 40, "kh": 60}

The other operations are "accept" (the user picked a suggestion), "commit"
(rank and return the auto-commit decision for the top candidate) and
"config" (change the auto-commit tier or the result limit).

# Message Types

Request is the single envelope for every operation; fields an operation
does not use are omitted. Response likewise carries whichever of
suggestions, glide results or a commit decision apply.
*/
package server

// Request is a client message.
type Request struct {
	ID    string `msgpack:"id"`
	Op    string `msgpack:"op"`
	Input string `msgpack:"p,omitempty"`
	Limit int    `msgpack:"l,omitempty"`

	Points [][2]float64 `msgpack:"pts,omitempty"`

	Subtype   string    `msgpack:"subtype,omitempty"`
	Keys      []KeyRect `msgpack:"keys,omitempty"`
	KeyWidth  float64   `msgpack:"kw,omitempty"`
	KeyHeight float64   `msgpack:"kh,omitempty"`

	Word     string `msgpack:"w,omitempty"`
	Provider string `msgpack:"src,omitempty"`

	Tier     string `msgpack:"tier,omitempty"`
	MaxLimit *int   `msgpack:"max_limit,omitempty"`
	Clip     string `msgpack:"clip,omitempty"`
}

// KeyRect is one key of a layout request.
type KeyRect struct {
	Char   string  `msgpack:"c"`
	Left   float64 `msgpack:"l"`
	Top    float64 `msgpack:"t"`
	Right  float64 `msgpack:"r"`
	Bottom float64 `msgpack:"b"`
}

// Suggestion is a ranked typed candidate.
type Suggestion struct {
	Word       string  `msgpack:"w"`
	Rank       uint16  `msgpack:"r"`
	Confidence float64 `msgpack:"cf"`
	Kind       string  `msgpack:"k"`
	Provider   string  `msgpack:"src"`
	User       bool    `msgpack:"u,omitempty"`
}

// GlideResult is a ranked glide candidate.
type GlideResult struct {
	Word string  `msgpack:"w"`
	Rank uint16  `msgpack:"r"`
	Cost float64 `msgpack:"cost"`
}

// CommitDecision is the auto-commit verdict for the top candidate.
type CommitDecision struct {
	Commit bool   `msgpack:"ok"`
	Word   string `msgpack:"w,omitempty"`
	Rule   string `msgpack:"rule"`
	Tier   string `msgpack:"tier"`
}

// Response answers one Request.
type Response struct {
	ID          string          `msgpack:"id"`
	Seq         uint64          `msgpack:"seq"`
	Status      string          `msgpack:"st"`
	Error       string          `msgpack:"e,omitempty"`
	Suggestions []Suggestion    `msgpack:"s,omitempty"`
	Glide       []GlideResult   `msgpack:"g,omitempty"`
	Commit      *CommitDecision `msgpack:"ac,omitempty"`
	Count       int             `msgpack:"c"`
	TimeTaken   int64           `msgpack:"t"`
}

const (
	statusOK    = "ok"
	statusError = "error"
	statusStale = "stale"
	statusReady = "ready"
)
