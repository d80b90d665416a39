package source

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/enquiry-cli/internal/fetcher"
	"github.com/sells-group/enquiry-cli/internal/model"
)

// ReadXLSX reads a spreadsheet export into a table. The first non-empty
// row is the header.
func ReadXLSX(path, name string, opts fetcher.XLSXOptions, overrides FieldTypes) (*model.Table, error) {
	rows, err := fetcher.ReadXLSX(path, opts)
	if err != nil {
		return nil, eris.Wrap(err, "source: read xlsx")
	}

	for i, row := range rows {
		if blankRow(row) {
			continue
		}
		header := make([]string, len(row))
		for j, c := range row {
			header[j] = model.DisplayValue(c)
		}
		return buildTable(name, header, rows[i+1:], nil, overrides), nil
	}
	return nil, eris.New("source: xlsx has no header row")
}
