package port

import (
	"context"

	"github.com/nikolayk812/storefront/internal/domain"
)

// Tracker receives page views for the analytics integration.
type Tracker interface {
	Track(ctx context.Context, view domain.PageView) error
}
