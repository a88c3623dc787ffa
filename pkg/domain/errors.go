package domain

import "errors"

// ErrSchemaNotFound is returned when a schema name cannot be found in the catalogue.
var ErrSchemaNotFound = errors.New("schema not found")

// ErrShapeMismatch is returned when a document's structure contradicts the
// schema badly enough that it cannot be normalized.
var ErrShapeMismatch = errors.New("document shape does not match schema")

// ErrDocumentRejected is matched by *FindingsError.
var ErrDocumentRejected = errors.New("document rejected")

// ErrDocumentNotFound is returned by a DocumentSource for unknown IDs.
var ErrDocumentNotFound = errors.New("document not found")

// ErrReadOnly is returned when writing to a catalogue opened read-only.
var ErrReadOnly = errors.New("schema catalogue is read-only")
