package demo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"

	"github.com/goliatone/go-admingen/pkg/action"
	"github.com/goliatone/go-admingen/pkg/field"
	"github.com/goliatone/go-admingen/pkg/model"
	"github.com/goliatone/go-admingen/pkg/query"
	"github.com/goliatone/go-admingen/pkg/record"
)

// exportPDF writes a one-page catalogue of the selected books.
func exportPDF(o Options) action.Action {
	return action.New("export_pdf", func(_ context.Context, records []record.Record, input action.Input) (action.Response, error) {
		if len(records) == 0 {
			return action.Error("Select at least one book to export."), nil
		}

		heading := input.Get("heading")
		if heading == "" {
			heading = "Book catalogue"
		}

		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.SetTitle(heading, false)
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 18)
		pdf.Cell(0, 10, heading)
		pdf.Ln(12)

		pdf.SetFont("Helvetica", "", 12)
		for _, rec := range records {
			title, _ := rec.Attr("original_title")
			pdf.Cell(0, 7, fmt.Sprintf("#%s  %v", record.IDOf(rec), title))
			pdf.Ln(7)
		}

		if err := os.MkdirAll(o.ExportDir, 0o755); err != nil {
			return action.Response{}, fmt.Errorf("demo: export dir: %w", err)
		}
		filename := fmt.Sprintf("books-%s.pdf", time.Now().UTC().Format("20060102-150405"))
		path := filepath.Join(o.ExportDir, filename)
		if err := pdf.OutputFileAndClose(path); err != nil {
			return action.Response{}, fmt.Errorf("demo: write pdf: %w", err)
		}

		o.Logger.Info("books exported", zap.String("path", path), zap.Int("count", len(records)))
		return action.Success(fmt.Sprintf("Exported %d books.", len(records))).Download(path, filename), nil
	}).
		WithName("Export as PDF").
		WithFields(field.String("heading"))
}

// deactivate retires the selected books so they stop appearing in pickers.
func deactivate(m model.Model, store query.Store) action.Action {
	return action.New("deactivate", func(ctx context.Context, records []record.Record, _ action.Input) (action.Response, error) {
		if len(records) == 0 {
			return action.Error("Nothing to deactivate."), nil
		}
		for _, rec := range records {
			if _, err := store.Update(ctx, m, rec.ID(), map[string]any{"active": false}); err != nil {
				return action.Response{}, err
			}
		}
		return action.Success(fmt.Sprintf("Deactivated %d books.", len(records))), nil
	})
}
