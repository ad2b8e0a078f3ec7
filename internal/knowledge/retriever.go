// Package knowledge exposes the vector-knowledge collaborator contract and a
// bundled in-memory fallback index. Retrieval queries are built from
// sanitized context terms only; raw transaction text never reaches this
// package.
package knowledge

import "context"

// Snippet is one retrieved guidance fragment.
type Snippet struct {
	ID    string
	Title string
	Text  string
}

// Retriever is the vector-knowledge collaborator contract.
type Retriever interface {
	Retrieve(ctx context.Context, terms []string, k int) ([]Snippet, error)
}
