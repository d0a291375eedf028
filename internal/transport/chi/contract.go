package chi

import (
	"context"

	dombatch "github.com/kailas-cloud/staysearch/internal/domain/batch"
	"github.com/kailas-cloud/staysearch/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/staysearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/staysearch/internal/usecase/search"
)

// searcher runs a semantic room search.
type searcher interface {
	Search(ctx context.Context, req *request.Request) ([]searchuc.Result, error)
}

// lister returns a serialized listing page.
type lister interface {
	ListPage(ctx context.Context, page, limit int) ([]byte, error)
}

// indexer writes and removes room embeddings.
type indexer interface {
	IndexCatalog(ctx context.Context) (dombatch.Report, error)
	IndexByID(ctx context.Context, id string) error
	Unindex(ctx context.Context, id string) error
}

// healthChecker reports component readiness.
type healthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
