package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/daltunay/perfumes/models"
)

// Columns is the CSV header, in order.
var Columns = []string{
	"slug",
	"url",
	"name",
	"type",
	"tags",
	"cas_no",
	"odour",
	"solvent",
	"synonyms",
	"manufacturer",
}

// WriteCSV writes products with a header row. List fields are JSON arrays;
// absent fields are empty cells.
func WriteCSV(w io.Writer, products []*models.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, p := range products {
		if err := cw.Write(record(p)); err != nil {
			return fmt.Errorf("export: write %s: %w", p.Slug, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes products to path, creating parent directories.
func WriteCSVFile(path string, products []*models.Product) error {
	slog.Info("writing products csv", "path", path, "count", len(products))
	return writeFile(path, func(w io.Writer) error { return WriteCSV(w, products) })
}

func record(p *models.Product) []string {
	return []string{
		p.Slug,
		p.URL,
		p.Name,
		cell(p.Type),
		listCell(p.Tags),
		listCell(p.CASNo),
		listCell(p.Odour),
		cell(p.Solvent),
		listCell(p.Synonyms),
		cell(p.Manufacturer),
	}
}

func cell(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func listCell(items []string) string {
	if len(items) == 0 {
		return ""
	}
	b, _ := json.Marshal(items)
	return string(b)
}
