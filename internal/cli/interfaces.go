package cli

import (
	"context"
	"time"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/cache"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
)

// ResultCache defines the cache operations required by the CLI
type ResultCache interface {
	LookupCommand(ctx context.Context, fp cache.Fingerprint) (*model.Command, bool)
	StoreCommand(ctx context.Context, fp cache.Fingerprint, cmd *model.Command) error
	LookupRendered(ctx context.Context, fp cache.Fingerprint, format string, compat bool) (string, bool)
	StoreRendered(ctx context.Context, fp cache.Fingerprint, format string, compat bool, script string) error
	InvalidateExpired(ctx context.Context) (int, error)
	List(ctx context.Context) ([]cache.Entry, error)
	Clear(ctx context.Context) error
	Now() time.Time
	Close() error
}

var _ ResultCache = (*cache.Cache)(nil)
