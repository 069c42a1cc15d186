package ports

import (
	"context"

	"github.com/lexhive/juris-cli/internal/domain"
)

type CaseRecords interface {
	CaseCover(ctx context.Context, number domain.CaseNumber) (domain.CaseCover, error)
	Case(ctx context.Context, number domain.CaseNumber) (domain.Case, error)
	CaseDocuments(ctx context.Context, number domain.CaseNumber) ([]domain.Document, error)
}

// BatchCaseFetcher is an optional capability of a CaseRecords source.
// Wiring decides whether a source provides it; services receive it
// explicitly instead of type-asserting at call sites.
type BatchCaseFetcher interface {
	CasesByNumber(ctx context.Context, numbers []domain.CaseNumber) ([]domain.CaseFetchResult, error)
}
