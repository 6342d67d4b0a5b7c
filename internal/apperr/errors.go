// Package apperr defines the error taxonomy shared across the pipeline so
// the boundary layer can map failures to user-facing responses.
package apperr

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrExtraction        = errors.New("extraction failed")
	ErrEmbedding         = errors.New("embedding failed")
	ErrGeneration        = errors.New("generation failed")
	ErrIndexNotFound     = errors.New("index not found")
	ErrIndexCorrupt      = errors.New("index corrupt")
	ErrNoDocuments       = errors.New("no documents indexed")
)

func IsUnsupportedFormat(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat)
}

func IsExtraction(err error) bool {
	return errors.Is(err, ErrExtraction)
}

func IsNoDocuments(err error) bool {
	return errors.Is(err, ErrNoDocuments)
}

func IsIndexNotFound(err error) bool {
	return errors.Is(err, ErrIndexNotFound)
}

func IsIndexCorrupt(err error) bool {
	return errors.Is(err, ErrIndexCorrupt)
}
