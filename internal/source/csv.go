package source

import (
	"context"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enquiry-cli/internal/fetcher"
	"github.com/sells-group/enquiry-cli/internal/model"
)

// ReadCSV reads a CSV export with a header row into a table. Comma, semicolon
// and tab separated exports are recognised from the header line.
func ReadCSV(ctx context.Context, r io.Reader, name string, overrides FieldTypes) (*model.Table, error) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		Sniff:      true,
		HasHeader:  true,
		HeaderCh:   headerCh,
		LazyQuotes: true,
		TrimSpace:  true,
	})

	var rows [][]any
	for row := range rowCh {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		rows = append(rows, cells)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "source: read csv")
	}

	var header []string
	select {
	case header = <-headerCh:
	default:
		return nil, eris.New("source: csv has no header row")
	}

	return buildTable(name, header, rows, nil, overrides), nil
}
