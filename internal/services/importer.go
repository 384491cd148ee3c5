package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"outgo/internal/core"
	applog "outgo/internal/log"
)

// ErrUploadTooLarge reports an upload exceeding the configured limit. It is a
// caller error; nothing is imported.
var ErrUploadTooLarge = errors.New("upload exceeds maximum allowed size")

// SkippedRow is one rejected CSV row with the reason it was rejected.
// Structurally broken rows (fewer than four fields) are dropped silently and
// never appear here.
type SkippedRow struct {
	Row    []string `json:"row"`
	Reason string   `json:"reason"`
}

// ImportReport summarizes one finished import batch.
type ImportReport struct {
	BatchID  string       `json:"batch_id"`
	UserID   int64        `json:"user_id"`
	Imported int          `json:"imported"`
	Skipped  []SkippedRow `json:"skipped"`
	When     time.Time    `json:"when"`
}

// ImportReporter receives the report of a finished batch. Reporting is
// best-effort; a failing reporter never fails the import.
type ImportReporter interface {
	ImportCompleted(ctx context.Context, report ImportReport)
}

// CSVImporter streams an uploaded CSV into validated, deduplicated expenses.
// Rows are [date, amount, description, category], no header. One bad row
// never aborts the batch; dedup is local to a single import run.
type CSVImporter struct {
	expenses *ExpenseService
	maxBytes int64
	reporter ImportReporter // optional
}

func NewCSVImporter(expenses *ExpenseService, maxBytes int64, reporter ImportReporter) *CSVImporter {
	return &CSVImporter{
		expenses: expenses,
		maxBytes: maxBytes,
		reporter: reporter,
	}
}

// Import reads the whole upload once (bounded by the configured size), then
// walks it row by row, persisting valid expenses through the same creation
// path as direct entry. It returns the number of imported rows; skipped rows
// go to the report sink.
//
// Rows already persisted stay persisted when a later row fails: there is no
// rollback here. Callers wanting all-or-nothing semantics must provide a
// transactional repository.
func (i *CSVImporter) Import(ctx context.Context, user core.User, upload io.Reader) (int, error) {
	// Buffer the transport stream before parsing so chunking and row
	// boundaries stay independent concerns.
	buf, err := io.ReadAll(io.LimitReader(upload, i.maxBytes+1))
	if err != nil {
		return 0, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(buf)) > i.maxBytes {
		return 0, fmt.Errorf("%w: limit %d bytes", ErrUploadTooLarge, i.maxBytes)
	}

	batchID := uuid.NewString()
	reader := csv.NewReader(bytes.NewReader(buf))
	reader.FieldsPerRecord = -1

	imported := 0
	dropped := 0
	var skipped []SkippedRow
	seen := make(map[string]struct{})

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Structural noise, same bucket as short rows.
			dropped++
			continue
		}
		if len(record) < 4 {
			dropped++
			continue
		}

		dateStr, amountStr, description, category := record[0], record[1], record[2], record[3]

		if !i.expenses.IsValidCategory(category) {
			skipped = append(skipped, SkippedRow{Row: record, Reason: "Invalid category: " + category})
			continue
		}

		fingerprint := strings.Join([]string{dateStr, category, amountStr, description}, "|")
		if _, dup := seen[fingerprint]; dup {
			skipped = append(skipped, SkippedRow{Row: record, Reason: "Duplicate row"})
			continue
		}

		if _, err := i.expenses.Create(ctx, user, dateStr, category, amountStr, description); err != nil {
			if isInfrastructureError(err) {
				// Storage failures abort the batch; rows committed so
				// far stay committed.
				return imported, fmt.Errorf("import row: %w", err)
			}
			skipped = append(skipped, SkippedRow{Row: record, Reason: "Error: " + err.Error()})
			continue
		}

		seen[fingerprint] = struct{}{}
		imported++
	}

	report := ImportReport{
		BatchID:  batchID,
		UserID:   user.ID,
		Imported: imported,
		Skipped:  skipped,
		When:     time.Now().UTC(),
	}

	logger := applog.FromContext(ctx)
	if len(skipped) > 0 {
		logger.WarnContext(ctx, "Rows skipped during CSV import",
			applog.FieldBatchID, batchID,
			applog.FieldUserID, user.ID,
			applog.FieldSkipped, len(skipped),
			applog.FieldImported, imported)
	}
	applog.NewStructuredLogger(logger).LogImportCompleted(ctx, user.ID, batchID, imported, len(skipped), dropped)

	if i.reporter != nil {
		i.reporter.ImportCompleted(ctx, report)
	}

	return imported, nil
}

// isInfrastructureError separates storage and stream failures, which abort
// the batch, from per-row validation failures, which only skip the row.
func isInfrastructureError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidDate,
		core.ErrFutureDate,
		core.ErrInvalidCategory,
		core.ErrInvalidAmount,
		core.ErrEmptyDescription,
		core.ErrEmptyCategory,
	} {
		if errors.Is(err, sentinel) {
			return false
		}
	}
	return true
}
