package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ramonehamilton/deck-analyst/internal/validation"
)

const fence = "```"

// ParseError reports a structured block that does not match the schema.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid structured block: %s: %v", e.Reason, e.Err)
	}
	return "invalid structured block: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// SplitReply separates the first fenced block from the prose that follows
// its closing fence. Without an opening fence the whole reply is prose.
// An unclosed fence makes the rest of the reply the block.
func SplitReply(text string) (block, prose string, found bool) {
	start := strings.Index(text, fence)
	if start < 0 {
		return "", strings.TrimSpace(text), false
	}

	// Only an info string ("json") is dropped from the opening fence line;
	// content written on that line stays part of the block.
	body := strings.TrimLeftFunc(text[start+len(fence):], isInfoStringRune)

	end := strings.Index(body, fence)
	if end < 0 {
		return strings.TrimSpace(body), "", true
	}
	return strings.TrimSpace(body[:end]), strings.TrimSpace(body[end+len(fence):]), true
}

func isInfoStringRune(r rune) bool {
	return r == '_' || r == '-' ||
		('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

// ParseStructured decodes a structured block. Syntax errors, a non-object
// document, wrongly typed fields and trailing content are all ParseErrors.
// Absent fields decode as empty and are reported by the validator.
func ParseStructured(block string) (*validation.Structured, error) {
	block = strings.TrimSpace(block)
	if block == "" {
		return nil, &ParseError{Reason: "empty block"}
	}
	if block[0] != '{' {
		return nil, &ParseError{Reason: "top level is not a JSON object"}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(block)))
	var s validation.Structured
	if err := dec.Decode(&s); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &ParseError{Reason: fmt.Sprintf("field %q has the wrong type", typeErr.Field), Err: err}
		}
		return nil, &ParseError{Reason: "malformed JSON", Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Reason: "unexpected content after JSON object"}
	}

	for i, rec := range s.Recommendations {
		s.Recommendations[i].CardName = strings.TrimSpace(rec.CardName)
	}
	return &s, nil
}
