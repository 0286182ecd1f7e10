package tracking

import (
	"context"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"go.uber.org/zap"
)

// Log writes page views to the logger. Used when no endpoint is configured.
type Log struct {
	log *zap.Logger
}

var _ port.Tracker = Log{}

func NewLog(log *zap.Logger) Log {
	if log == nil {
		log = zap.NewNop()
	}
	return Log{log: log.Named("tracking")}
}

func (l Log) Track(_ context.Context, view domain.PageView) error {
	l.log.Info("page view",
		zap.String("page_type", string(view.PageType)),
		zap.String("product_ids", view.JoinedProductIDs()),
		zap.String("category_id", view.CategoryID),
	)
	return nil
}

type Nop struct{}

var _ port.Tracker = Nop{}

func (Nop) Track(context.Context, domain.PageView) error { return nil }
