package source

import (
	"context"
	"sort"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enquiry-cli/internal/model"
	"github.com/sells-group/enquiry-cli/pkg/notion"
)

// NotionSource reads every page of a Notion database.
type NotionSource struct {
	client     notion.Client
	databaseID string
	// createdField exposes page creation times under this name when set.
	createdField string
}

// NewNotionSource creates a NotionSource for databaseID.
func NewNotionSource(client notion.Client, databaseID, createdField string) *NotionSource {
	return &NotionSource{client: client, databaseID: databaseID, createdField: createdField}
}

// Name returns the database id.
func (s *NotionSource) Name() string {
	return "notion:" + s.databaseID
}

// Load fetches the database schema and all of its pages, oldest first.
func (s *NotionSource) Load(ctx context.Context) (*model.Table, error) {
	if s.databaseID == "" {
		return nil, eris.New("source: notion database id is required")
	}

	db, err := s.client.GetDatabase(ctx, s.databaseID)
	if err != nil {
		return nil, eris.Wrap(err, "source: load notion schema")
	}
	pages, err := notion.QueryEnquiries(ctx, s.client, s.databaseID)
	if err != nil {
		return nil, eris.Wrap(err, "source: load notion pages")
	}

	fields := notionFields(db.Properties)
	addCreated := false
	if s.createdField != "" {
		if _, ok := model.NewFieldRegistry(fields).ByName(s.createdField); !ok {
			fields = append(fields, model.Field{Name: s.createdField, Type: model.FieldTypeDateTime})
			addCreated = true
		}
	}

	records := make([]model.Record, 0, len(pages))
	for _, p := range pages {
		values := make(map[string]any, len(fields))
		for name, prop := range p.Properties {
			values[name] = notionValue(prop)
		}
		if addCreated && !p.CreatedTime.IsZero() {
			values[s.createdField] = p.CreatedTime
		}
		records = append(records, model.Record{ID: string(p.ID), Values: values})
	}

	table := &model.Table{
		Name:    notion.DatabaseTitle(db),
		Fields:  fields,
		Records: records,
	}
	zap.L().Info("source: loaded notion database",
		zap.String("component", "source"),
		zap.String("database_id", s.databaseID),
		zap.String("table", table.Name),
		zap.Int("records", len(records)),
	)
	return table, nil
}

// notionFields maps property configs to fields, ordered by name since the
// API returns them as an unordered map.
func notionFields(props notionapi.PropertyConfigs) []model.Field {
	fields := make([]model.Field, 0, len(props))
	for name, cfg := range props {
		fields = append(fields, model.Field{Name: name, Type: notionFieldType(string(cfg.GetType()))})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields
}

func notionFieldType(t string) model.FieldType {
	switch t {
	case "date":
		return model.FieldTypeDate
	case "created_time", "last_edited_time":
		return model.FieldTypeDateTime
	case "title", "rich_text", "url", "email", "phone_number":
		return model.FieldTypeText
	case "number":
		return model.FieldTypeNumber
	case "checkbox":
		return model.FieldTypeCheckbox
	case "select", "multi_select", "status":
		return model.FieldTypeSelect
	}
	return model.FieldTypeOther
}

// notionValue converts a page property to a record value. Empty text,
// empty selects, unset dates and unchecked boxes become nil.
func notionValue(prop notionapi.Property) any {
	switch p := prop.(type) {
	case *notionapi.TitleProperty:
		return textOrNil(notion.PlainText(p.Title))
	case *notionapi.RichTextProperty:
		return textOrNil(notion.PlainText(p.RichText))
	case *notionapi.NumberProperty:
		return p.Number
	case *notionapi.SelectProperty:
		return optionOrNil(string(p.Select.ID), p.Select.Name)
	case *notionapi.StatusProperty:
		return optionOrNil(string(p.Status.ID), p.Status.Name)
	case *notionapi.MultiSelectProperty:
		var opts []model.Option
		for _, o := range p.MultiSelect {
			opts = append(opts, model.Option{ID: string(o.ID), Name: o.Name})
		}
		if len(opts) == 0 {
			return nil
		}
		return opts
	case *notionapi.DateProperty:
		if p.Date == nil || p.Date.Start == nil {
			return nil
		}
		return notionDate(time.Time(*p.Date.Start))
	case *notionapi.CheckboxProperty:
		if !p.Checkbox {
			return nil
		}
		return true
	case *notionapi.URLProperty:
		return textOrNil(p.URL)
	case *notionapi.EmailProperty:
		return textOrNil(p.Email)
	case *notionapi.PhoneNumberProperty:
		return textOrNil(p.PhoneNumber)
	case *notionapi.CreatedTimeProperty:
		return p.CreatedTime
	case *notionapi.LastEditedTimeProperty:
		return p.LastEditedTime
	}
	return nil
}

// notionDate keeps timestamps with a time of day and renders date-only
// values as text so they are read as calendar dates in the reference
// location.
func notionDate(t time.Time) any {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t
}

func textOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func optionOrNil(id, name string) any {
	if name == "" {
		return nil
	}
	return model.Option{ID: id, Name: name}
}
