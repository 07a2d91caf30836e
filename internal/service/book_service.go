package service

import (
	"context"

	"bookshelf/internal/resource"
)

// ReadParam is the payload key of the read-count action.
const ReadParam = "read"

// BookService implements the book actions that sit beside plain CRUD.
type BookService struct {
	books *resource.Pipeline
}

func NewBookService(books *resource.Pipeline) *BookService {
	return &BookService{books: books}
}

// Latest returns the most recently created book.
func (s *BookService) Latest(ctx context.Context, req resource.Request) (map[string]any, error) {
	return s.books.Latest(ctx, req)
}

// SetReadCount sets bread from the "read" payload value. Validation
// messages are reported under "read".
func (s *BookService) SetReadCount(ctx context.Context, req resource.Request) (map[string]any, error) {
	read, ok := req.Payload[ReadParam]
	if !ok {
		return nil, resource.FieldError(ReadParam, "This field is required.")
	}
	req.Payload = map[string]any{"bread": read}
	out, err := s.books.Update(ctx, req, true)
	if verr, ok := err.(*resource.ValidationError); ok {
		if msgs, ok := verr.Fields["bread"]; ok {
			delete(verr.Fields, "bread")
			verr.Fields[ReadParam] = msgs
		}
	}
	return out, err
}

// Archive soft-deletes the book.
func (s *BookService) Archive(ctx context.Context, req resource.Request) error {
	return s.books.Archive(ctx, req)
}
