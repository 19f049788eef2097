package sheets

import (
	"context"

	"budgeteer/internal/core"
)

// ArchiveWriter mirrors the archived record of a closed month to an
// external spreadsheet. Mirroring is best effort: a failure is logged and
// never fails the close itself.
type ArchiveWriter interface {
	AppendClosedMonth(ctx context.Context, key core.MonthKey, archived core.ArchivedMonth) error
}
