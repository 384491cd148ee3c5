package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"outgo/internal/amqp"
	"outgo/internal/services"
	"outgo/internal/sheets/memory"
)

func TestHandleReportMessageExports(t *testing.T) {
	store := memory.New()
	w := NewReportWorker(store)

	msg := &amqp.ImportReportMessage{
		BatchID:  "batch-1",
		UserID:   7,
		Imported: 3,
		Skipped: []services.SkippedRow{
			{Row: []string{"2025-06-01", "1.00", "x", "Yachts"}, Reason: "Invalid category: Yachts"},
		},
		Timestamp: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
	}

	require.NoError(t, w.HandleReportMessage(context.Background(), msg))

	reports := store.Reports()
	require.Len(t, reports, 1)
	require.Equal(t, "batch-1", reports[0].BatchID)
	require.Equal(t, int64(7), reports[0].UserID)
	require.Equal(t, 3, reports[0].Imported)
	require.Len(t, reports[0].Skipped, 1)
}

func TestHandleReportMessageWithoutExporter(t *testing.T) {
	w := NewReportWorker(nil)

	msg := &amqp.ImportReportMessage{BatchID: "batch-2", UserID: 1, Imported: 0}
	require.NoError(t, w.HandleReportMessage(context.Background(), msg))
}
