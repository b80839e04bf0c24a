package scryfall

import (
	"errors"
	"fmt"
)

// Card is the subset of a Scryfall card object the analyzer reads.
type Card struct {
	ID            string            `json:"id"`
	OracleID      string            `json:"oracle_id"`
	Name          string            `json:"name"`
	Layout        string            `json:"layout"`
	ManaCost      string            `json:"mana_cost,omitempty"`
	CMC           float64           `json:"cmc"`
	TypeLine      string            `json:"type_line"`
	OracleText    *string           `json:"oracle_text,omitempty"`
	Colors        []string          `json:"colors,omitempty"`
	ColorIdentity []string          `json:"color_identity"`
	Keywords      []string          `json:"keywords,omitempty"`
	CardFaces     []CardFace        `json:"card_faces,omitempty"`
	Legalities    map[string]string `json:"legalities"`
	Prices        Prices            `json:"prices"`
}

// CardFace represents one face of a multi-faced card.
type CardFace struct {
	Name       string  `json:"name"`
	ManaCost   string  `json:"mana_cost,omitempty"`
	TypeLine   string  `json:"type_line"`
	OracleText *string `json:"oracle_text,omitempty"`
}

// Prices holds the currency prices Scryfall reports as decimal strings.
type Prices struct {
	USD *string `json:"usd,omitempty"`
	EUR *string `json:"eur,omitempty"`
	TIX *string `json:"tix,omitempty"`
}

// CardIdentifier represents a card identifier for the /cards/collection endpoint.
type CardIdentifier struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// CollectionRequest is the request body for /cards/collection.
type CollectionRequest struct {
	Identifiers []CardIdentifier `json:"identifiers"`
}

// CollectionResponse is the response from /cards/collection.
type CollectionResponse struct {
	Object   string           `json:"object"`
	NotFound []CardIdentifier `json:"not_found"`
	Data     []Card           `json:"data"`
}

// APIError represents an error response from the Scryfall API.
type APIError struct {
	Object  string `json:"object"`
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Details string `json:"details"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Details)
	}
	return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Code)
}

// NotFoundError represents a 404 from the API.
type NotFoundError struct {
	URL string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.URL)
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
