package sheets

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/libertypay/card-reconciliation/internal/model"
)

// WriteResults writes every result table to its own tab of a results
// workbook, plus a Summary tab with the run narrative. Returns the path
// written.
func WriteResults(outputDir, runDate string, datasets []model.Dataset, summary string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for _, ds := range datasets {
		// Excel caps sheet names at 31 characters.
		name := ds.Name
		if len(name) > 31 {
			name = name[:31]
		}
		if _, err := f.NewSheet(name); err != nil {
			return "", fmt.Errorf("sheet %q: %w", name, err)
		}
		header := make([]any, len(ds.Columns))
		for i, c := range ds.Columns {
			header[i] = c
		}
		if err := writeRow(f, name, 1, header); err != nil {
			return "", err
		}
		for i, row := range ds.Rows {
			if err := writeRow(f, name, i+2, row); err != nil {
				return "", err
			}
		}
	}

	if _, err := f.NewSheet("Summary"); err != nil {
		return "", fmt.Errorf("summary sheet: %w", err)
	}
	if err := writeRow(f, "Summary", 1, []any{runDate, summary}); err != nil {
		return "", err
	}

	// Drop the default empty sheet excelize creates.
	_ = f.DeleteSheet("Sheet1")

	path := filepath.Join(outputDir, fmt.Sprintf("reconciliation_%s.xlsx", runDate))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save results workbook: %w", err)
	}
	return path, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("sheet %q row %d: %w", sheet, row, err)
	}
	return nil
}
