package sheets

import (
	"context"

	"outgo/internal/services"
)

// Ports for outbound adapters.
type (
	// ReportExporter archives finished import batches to an external sheet.
	ReportExporter interface {
		// AppendImportReport appends one row per batch and returns a
		// reference to the written row.
		AppendImportReport(ctx context.Context, report services.ImportReport) (rowRef string, err error)
	}
)
