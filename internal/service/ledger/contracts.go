package ledger

import (
	"context"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/ports/claimtx"
)

type claimRunner interface {
	WithTx(ctx context.Context, fn func(tx claimtx.Repository) error) error
}
