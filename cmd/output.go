package cmd

import (
	"encoding/json"
	"io"
)

type errorDoc struct {
	Error string `json:"error"`
}

// reportedError marks a failure whose JSON document is already on stdout.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
