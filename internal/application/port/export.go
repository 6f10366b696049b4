package port

import (
	"context"
	"io"

	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

// MerchantExporter renders a merchant listing into a downloadable document
type MerchantExporter interface {
	Export(ctx context.Context, merchants []*entity.Merchant, w io.Writer) error
	ContentType() string
	FileExtension() string
}
