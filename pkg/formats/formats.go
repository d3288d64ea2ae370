// Package formats provides parsers for Bedrock-style geometry and animation documents.
package formats

import "errors"

// Document errors shared by the geometry and animation parsers.
var (
	ErrMalformedDocument  = errors.New("malformed document")
	ErrMalformedChannel   = errors.New("malformed animation channel")
	ErrDegenerateInterval = errors.New("degenerate keyframe interval")
	ErrUnknownAnimation   = errors.New("unknown animation")
)
