package source

import (
	"context"
	"io"
	"maps"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enquiry-cli/internal/fetcher"
	"github.com/sells-group/enquiry-cli/internal/model"
)

// jsonExport is the records envelope written by base exports:
// {"records": [{"id": ..., "createdTime": ..., "fields": {...}}]}.
type jsonExport struct {
	Records []jsonRecord `json:"records"`
}

type jsonRecord struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

// ReadJSON reads either a bare array of objects or a records envelope into
// a table. Field order is alphabetical since JSON objects are unordered.
// When createdField is set and the export carries record creation times,
// they are exposed as a date-time field of that name.
func ReadJSON(ctx context.Context, r io.Reader, name, createdField string, overrides FieldTypes) (*model.Table, error) {
	kind, body, err := fetcher.PeekJSONKind(r)
	if err != nil {
		return nil, eris.Wrap(err, "source: read json")
	}

	var records []jsonRecord
	switch kind {
	case '[':
		objCh, errCh := fetcher.DecodeJSONArray[map[string]any](ctx, body)
		for obj := range objCh {
			records = append(records, jsonRecord{Fields: obj})
		}
		if err := <-errCh; err != nil {
			return nil, eris.Wrap(err, "source: read json")
		}
	case '{':
		export, err := fetcher.DecodeJSONObject[jsonExport](body)
		if err != nil {
			return nil, eris.Wrap(err, "source: read json")
		}
		records = export.Records
	default:
		return nil, eris.Errorf("source: unexpected json document starting with %q", kind)
	}

	return jsonTable(name, records, createdField, overrides), nil
}

func jsonTable(name string, records []jsonRecord, createdField string, overrides FieldTypes) *model.Table {
	seen := make(map[string]bool)
	var header []string
	for _, rec := range records {
		for k := range rec.Fields {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}
	sort.Strings(header)

	addCreated := createdField != "" && !seen[createdField]
	if addCreated {
		header = append(header, createdField)
		if _, ok := overrides.lookup(createdField); !ok {
			withCreated := make(FieldTypes, len(overrides)+1)
			maps.Copy(withCreated, overrides)
			withCreated[createdField] = model.FieldTypeDateTime
			overrides = withCreated
		}
	}

	rows := make([][]any, len(records))
	ids := make([]string, len(records))
	for i, rec := range records {
		row := make([]any, len(header))
		for j, h := range header {
			row[j] = rec.Fields[h]
		}
		if addCreated && rec.CreatedTime != "" {
			row[len(header)-1] = rec.CreatedTime
		}
		rows[i] = row
		ids[i] = rec.ID
	}

	return buildTable(name, header, rows, ids, overrides)
}
