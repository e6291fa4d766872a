package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Source yields the catalog table. Implementations: SheetSource and the
// Postgres repository.
type Source interface {
	LoadCatalog(ctx context.Context) (Catalog, error)
}

type SheetSource struct {
	Path string
}

func (s SheetSource) LoadCatalog(ctx context.Context) (Catalog, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open catalog %s: %w", s.Path, err)
	}
	defer f.Close()
	return fromWorkbook(f)
}

// ReadSheet parses the first sheet of an .xlsx stream.
func ReadSheet(r io.Reader) (Catalog, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Catalog{}, fmt.Errorf("invalid workbook: %w", err)
	}
	defer f.Close()
	return fromWorkbook(f)
}

func fromWorkbook(f *excelize.File) (Catalog, error) {
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Catalog{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return FromTable(rows), nil
}
