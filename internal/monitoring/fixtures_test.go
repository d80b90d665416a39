package monitoring

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/enquiry-cli/internal/model"
	"github.com/sells-group/enquiry-cli/internal/store"
)

// refNow is the 15th of a 30-day month.
var refNow = time.Date(2025, time.June, 15, 9, 30, 0, 0, time.UTC)

type staticSource struct {
	name  string
	table *model.Table
	err   error
	loads int
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Load(context.Context) (*model.Table, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return s.table, nil
}

func enquiryTable() *model.Table {
	return &model.Table{
		Name: "Enquiries",
		Fields: []model.Field{
			{Name: "Enquiry ID", Type: model.FieldTypeText},
			{Name: "Date Created", Type: model.FieldTypeDate},
			{Name: "Discovery Call", Type: model.FieldTypeDate},
			{Name: "Live Call", Type: model.FieldTypeDate},
			{Name: "Enquiry Source", Type: model.FieldTypeSelect},
		},
	}
}

// addEnquiries appends n records created on date; the first discovery of
// them carry a discovery call.
func addEnquiries(t *model.Table, date string, n, discovery int) {
	for i := 0; i < n; i++ {
		vals := map[string]any{"Date Created": date}
		if date == "" {
			vals = map[string]any{"Enquiry ID": "undated"}
		}
		if i < discovery {
			vals["Discovery Call"] = date
		}
		t.Records = append(t.Records, model.Record{
			ID:     fmt.Sprintf("%s-%d", date, len(t.Records)),
			Values: vals,
		})
	}
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}
