package ports

import "context"

// DocumentSource defines where documents to check come from when they are
// not passed inline (e.g. a Loam vault of Markdown or JSON files).
type DocumentSource interface {
	// Document returns the data of the document with the given ID.
	Document(ctx context.Context, id string) (map[string]any, error)

	// Documents lists the IDs of every document in the source.
	Documents(ctx context.Context) ([]string, error)
}
