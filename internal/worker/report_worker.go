package worker

import (
	"context"
	"fmt"
	"log/slog"

	"outgo/internal/amqp"
	"outgo/internal/services"
	"outgo/internal/sheets"
)

// ReportWorker archives finished import batches. Exporting is optional; with
// no exporter configured the worker only logs the batch.
type ReportWorker struct {
	exporter sheets.ReportExporter
}

func NewReportWorker(exporter sheets.ReportExporter) *ReportWorker {
	return &ReportWorker{exporter: exporter}
}

// HandleReportMessage processes a single import report message from AMQP
func (w *ReportWorker) HandleReportMessage(ctx context.Context, msg *amqp.ImportReportMessage) error {
	slog.InfoContext(ctx, "Processing import report",
		"batch_id", msg.BatchID,
		"user_id", msg.UserID,
		"imported", msg.Imported,
		"skipped", len(msg.Skipped))

	for _, skip := range msg.Skipped {
		slog.WarnContext(ctx, "Skipped import row",
			"batch_id", msg.BatchID,
			"row", skip.Row,
			"reason", skip.Reason)
	}

	if w.exporter == nil {
		return nil
	}

	report := services.ImportReport{
		BatchID:  msg.BatchID,
		UserID:   msg.UserID,
		Imported: msg.Imported,
		Skipped:  msg.Skipped,
		When:     msg.Timestamp,
	}

	ref, err := w.exporter.AppendImportReport(ctx, report)
	if err != nil {
		return fmt.Errorf("export import report: %w", err)
	}

	slog.InfoContext(ctx, "Import report archived",
		"batch_id", msg.BatchID,
		"sheets_ref", ref)

	return nil
}
