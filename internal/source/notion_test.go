package source

import (
	"context"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enquiry-cli/internal/metrics"
	"github.com/sells-group/enquiry-cli/internal/model"
)

type fakeNotion struct {
	db    *notionapi.Database
	pages []notionapi.Page
	err   error
}

func (f *fakeNotion) GetDatabase(_ context.Context, _ string) (*notionapi.Database, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.db, nil
}

func (f *fakeNotion) QueryDatabase(_ context.Context, _ string, _ *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return &notionapi.DatabaseQueryResponse{Results: f.pages}, nil
}

func notionDay(y int, m time.Month, d int) *notionapi.DateObject {
	start := notionapi.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	return &notionapi.DateObject{Start: &start}
}

func enquiryDatabase() *notionapi.Database {
	return &notionapi.Database{
		Title: []notionapi.RichText{{PlainText: "Enquiries"}},
		Properties: notionapi.PropertyConfigs{
			"Company Name":   &notionapi.TitlePropertyConfig{Type: "title"},
			"Date Created":   &notionapi.DatePropertyConfig{Type: "date"},
			"Discovery Call": &notionapi.CheckboxPropertyConfig{Type: "checkbox"},
			"Enquiry Source": &notionapi.SelectPropertyConfig{Type: "select"},
		},
	}
}

func enquiryPage(id, company string, created *notionapi.DateObject, discovery bool, source string) notionapi.Page {
	return notionapi.Page{
		ID:          notionapi.ObjectID(id),
		CreatedTime: time.Date(2025, time.June, 14, 12, 0, 0, 0, time.UTC),
		Properties: notionapi.Properties{
			"Company Name":   &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: company}}},
			"Date Created":   &notionapi.DateProperty{Date: created},
			"Discovery Call": &notionapi.CheckboxProperty{Checkbox: discovery},
			"Enquiry Source": &notionapi.SelectProperty{Select: notionapi.Option{ID: notionapi.PropertyID("opt-" + source), Name: source}},
		},
	}
}

func TestNotionSource_Load(t *testing.T) {
	client := &fakeNotion{
		db: enquiryDatabase(),
		pages: []notionapi.Page{
			enquiryPage("p1", "Acme", notionDay(2025, time.June, 2), true, "web"),
			enquiryPage("p2", "Globex", notionDay(2025, time.June, 9), false, ""),
			enquiryPage("p3", "", nil, false, "LinkedIn"),
		},
	}

	src := NewNotionSource(client, "db-1", "")
	assert.Equal(t, "notion:db-1", src.Name())

	table, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Enquiries", table.Name)
	assert.Equal(t, []model.Field{
		{Name: "Company Name", Type: model.FieldTypeText},
		{Name: "Date Created", Type: model.FieldTypeDate},
		{Name: "Discovery Call", Type: model.FieldTypeCheckbox},
		{Name: "Enquiry Source", Type: model.FieldTypeSelect},
	}, table.Fields)

	require.Len(t, table.Records, 3)
	first := table.Records[0]
	assert.Equal(t, "p1", first.ID)
	assert.Equal(t, "Acme", first.Value("Company Name"))
	assert.Equal(t, "2025-06-02", first.Value("Date Created"))
	assert.Equal(t, true, first.Value("Discovery Call"))
	assert.Equal(t, model.Option{ID: "opt-web", Name: "web"}, first.Value("Enquiry Source"))

	second := table.Records[1]
	assert.Nil(t, second.Value("Discovery Call"))
	assert.Nil(t, second.Value("Enquiry Source"))

	third := table.Records[2]
	assert.Nil(t, third.Value("Company Name"))
	assert.Nil(t, third.Value("Date Created"))

	snap := metrics.Compute(table, "", refTime())
	assert.Equal(t, 2, snap.CurrentMonthCount)
	assert.Equal(t, 1, snap.UndatedRecords)
	assert.Equal(t, 50.0, snap.CurrentMonth.DiscoveryConversion)
}

func TestNotionSource_CreatedField(t *testing.T) {
	client := &fakeNotion{
		db:    enquiryDatabase(),
		pages: []notionapi.Page{enquiryPage("p1", "Acme", nil, false, "")},
	}

	table, err := NewNotionSource(client, "db-1", "Created").Load(context.Background())
	require.NoError(t, err)

	f, ok := table.Registry().ByName("Created")
	require.True(t, ok)
	assert.Equal(t, model.FieldTypeDateTime, f.Type)
	assert.Equal(t, time.Date(2025, time.June, 14, 12, 0, 0, 0, time.UTC), table.Records[0].Value("Created"))
}

func TestNotionSource_Errors(t *testing.T) {
	_, err := NewNotionSource(&fakeNotion{}, "", "").Load(context.Background())
	assert.ErrorContains(t, err, "source: notion database id is required")

	_, err = NewNotionSource(&fakeNotion{err: assert.AnError}, "db-1", "").Load(context.Background())
	assert.ErrorContains(t, err, "source: load notion schema")
}

func TestNotionValue(t *testing.T) {
	stamp := notionapi.Date(time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC))
	tests := []struct {
		name string
		prop notionapi.Property
		want any
	}{
		{"rich text", &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: "a"}, {PlainText: "b"}}}, "ab"},
		{"empty rich text", &notionapi.RichTextProperty{}, nil},
		{"number", &notionapi.NumberProperty{Number: 4}, 4.0},
		{"status", &notionapi.StatusProperty{Status: notionapi.Status{Name: "Qualified"}}, model.Option{Name: "Qualified"}},
		{"multi select", &notionapi.MultiSelectProperty{MultiSelect: []notionapi.Option{{Name: "a"}, {Name: "b"}}}, []model.Option{{Name: "a"}, {Name: "b"}}},
		{"empty multi select", &notionapi.MultiSelectProperty{}, nil},
		{"timestamp", &notionapi.DateProperty{Date: &notionapi.DateObject{Start: &stamp}}, time.Time(stamp)},
		{"url", &notionapi.URLProperty{URL: "https://acme.test"}, "https://acme.test"},
		{"email", &notionapi.EmailProperty{Email: ""}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, notionValue(tt.prop))
		})
	}
}

func TestNotionFieldType(t *testing.T) {
	assert.Equal(t, model.FieldTypeDateTime, notionFieldType("created_time"))
	assert.Equal(t, model.FieldTypeSelect, notionFieldType("status"))
	assert.Equal(t, model.FieldTypeText, notionFieldType("phone_number"))
	assert.Equal(t, model.FieldTypeOther, notionFieldType("relation"))
}
