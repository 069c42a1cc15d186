package ports

import (
	"context"
	"io"

	"github.com/lexhive/juris-cli/internal/domain"
)

// DocumentSink accepts downloaded document bytes. Implementations own
// naming and placement; transport outcomes stay with the caller.
type DocumentSink interface {
	Accept(ctx context.Context, number domain.CaseNumber, doc domain.Document, body io.Reader) (string, int64, error)
}
