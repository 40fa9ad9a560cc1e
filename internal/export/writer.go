package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// Output formats.
const (
	FormatCSV      = "csv"
	FormatXLSX     = "xlsx"
	FormatJSON     = "json"
	FormatPostgres = "postgres"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Leads"

// WriteCSV writes a header line and one record per row.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, r := range rows {
		if err := cw.Write(r.Strings()); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteJSON writes rows as an indented JSON array.
func WriteJSON(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(rows), "export: encode json")
}

// WriteXLSX writes rows to a single-sheet workbook with typed cells.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, c := range Columns {
		header.AddCell().SetString(c)
	}

	for _, r := range rows {
		xr := sheet.AddRow()
		for _, v := range r.Values() {
			cell := xr.AddCell()
			switch x := v.(type) {
			case int:
				cell.SetInt(x)
			case float64:
				cell.SetFloat(x)
			case bool:
				cell.SetBool(x)
			case time.Time:
				cell.SetString(formatCell(x))
			case string:
				cell.SetString(x)
			}
		}
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}

// FormatForPath infers an output format from a file extension, defaulting
// to CSV.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX
	case ".json":
		return FormatJSON
	default:
		return FormatCSV
	}
}

// WriteFile writes rows to path in the given format. An empty format is
// inferred from the extension.
func WriteFile(path, format string, rows []Row) error {
	if format == "" {
		format = FormatForPath(path)
	}
	var write func(io.Writer, []Row) error
	switch format {
	case FormatCSV:
		write = WriteCSV
	case FormatXLSX:
		write = WriteXLSX
	case FormatJSON:
		write = WriteJSON
	default:
		return eris.Errorf("export: unsupported file format %q", format)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "export: create output dir")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create file")
	}
	if err := write(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "export: close file")
	}

	zap.L().Info("export: wrote leads",
		zap.String("path", path),
		zap.String("format", format),
		zap.Int("rows", len(rows)),
	)
	return nil
}

// Sink receives emitted rows.
type Sink interface {
	Write(ctx context.Context, rows []Row) error
}

// FileSink writes rows to a file.
type FileSink struct {
	Path   string
	Format string
}

// Write implements Sink.
func (s FileSink) Write(_ context.Context, rows []Row) error {
	return WriteFile(s.Path, s.Format, rows)
}
