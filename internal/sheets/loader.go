// Package sheets loads the six input tables from a reconciliation workbook
// and writes result tables back out. Each tab is read as a header row plus
// string cells; all typing is left to the engine's normalizer.
package sheets

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/libertypay/card-reconciliation/internal/config"
	"github.com/libertypay/card-reconciliation/internal/model"
)

type Loader struct {
	cfg *config.Config
}

func NewLoader(cfg *config.Config) *Loader {
	return &Loader{cfg: cfg}
}

// LoadAll reads the configured workbook from disk.
func (l *Loader) LoadAll() (model.Tables, error) {
	f, err := os.Open(l.cfg.WorkbookPath)
	if err != nil {
		return model.Tables{}, fmt.Errorf("open workbook %s: %w", l.cfg.WorkbookPath, err)
	}
	defer f.Close()
	return l.LoadAllFrom(f)
}

// LoadAllFrom reads all six tables from an xlsx stream, e.g. an uploaded
// workbook.
func (l *Loader) LoadAllFrom(r io.Reader) (model.Tables, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return model.Tables{}, fmt.Errorf("read workbook: %w", err)
	}
	defer f.Close()

	var tables model.Tables
	for _, tab := range []struct {
		sheet string
		dst   *model.RawTable
	}{
		{l.cfg.SheetCardTransaction, &tables.CardTransactions},
		{l.cfg.SheetNIBSSSettlement, &tables.NIBSSUnitySettlement},
		{l.cfg.SheetISWSettlement, &tables.ISWUnitySettlement},
		{l.cfg.SheetParallexNIBSS, &tables.NIBSSParallexSettlement},
		{l.cfg.SheetBankUnity, &tables.UnityStatement},
		{l.cfg.SheetBankParallex, &tables.ParallexStatement},
	} {
		t, err := readSheet(f, tab.sheet)
		if err != nil {
			return model.Tables{}, err
		}
		*tab.dst = t
	}
	return tables, nil
}

// readSheet converts one tab into a raw table. Rows shorter than the
// header are padded with empty cells so lookups by column name never miss.
func readSheet(f *excelize.File, name string) (model.RawTable, error) {
	rows, err := f.GetRows(name)
	if err != nil {
		return model.RawTable{}, fmt.Errorf("sheet %q: %w", name, err)
	}

	t := model.RawTable{Name: name}
	if len(rows) == 0 {
		return t, nil
	}

	t.Columns = rows[0]
	t.Rows = make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cells := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			if col == "" {
				continue
			}
			if i < len(row) {
				cells[col] = row[i]
			} else {
				cells[col] = ""
			}
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, nil
}
