package source

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enquiry-cli/internal/model"
	"github.com/sells-group/enquiry-cli/pkg/salesforce"
)

// SalesforceOptions configures a SalesforceSource.
type SalesforceOptions struct {
	// Object is the SObject to read; Lead when empty.
	Object string
	// Fields limits the query to these API names; all readable fields when empty.
	Fields []string
	// CreatedSince limits records by CreatedDate when non-zero.
	CreatedSince time.Time
	// Where is an extra SOQL condition.
	Where string
}

// SalesforceSource reads records of one SObject.
type SalesforceSource struct {
	client salesforce.Client
	opts   SalesforceOptions
}

// NewSalesforceSource creates a SalesforceSource.
func NewSalesforceSource(client salesforce.Client, opts SalesforceOptions) *SalesforceSource {
	if opts.Object == "" {
		opts.Object = salesforce.DefaultObject
	}
	return &SalesforceSource{client: client, opts: opts}
}

// Name returns the SObject name.
func (s *SalesforceSource) Name() string {
	return "salesforce:" + s.opts.Object
}

// Load queries the object's records. Fields are named by label so the
// engine's keyword resolution sees "Created Date", "Lead Source" and so on.
func (s *SalesforceSource) Load(ctx context.Context) (*model.Table, error) {
	sfFields, rows, err := salesforce.QueryRecords(ctx, s.client, s.opts.Object, s.opts.Fields, salesforce.QueryOptions{
		CreatedSince: s.opts.CreatedSince,
		Where:        s.opts.Where,
	})
	if err != nil {
		return nil, eris.Wrap(err, "source: load salesforce records")
	}

	names := salesforceFieldNames(sfFields)
	fields := make([]model.Field, len(sfFields))
	for i, f := range sfFields {
		fields[i] = model.Field{Name: names[i], Type: salesforceFieldType(f.Type)}
	}

	records := make([]model.Record, 0, len(rows))
	for i, row := range rows {
		values := make(map[string]any, len(fields))
		for j, f := range sfFields {
			values[names[j]] = salesforceValue(row[f.Name], f.Type)
		}
		id, _ := row["Id"].(string)
		if id == "" {
			id = "row-" + strconv.Itoa(i+1)
		}
		records = append(records, model.Record{ID: id, Values: values})
	}

	zap.L().Info("source: loaded salesforce records",
		zap.String("component", "source"),
		zap.String("object", s.opts.Object),
		zap.Int("records", len(records)),
	)
	return &model.Table{Name: s.opts.Object, Fields: fields, Records: records}, nil
}

// salesforceFieldNames prefers labels, falling back to the API name for
// labels shared by more than one field.
func salesforceFieldNames(fields []salesforce.SObjectField) []string {
	counts := make(map[string]int, len(fields))
	for _, f := range fields {
		counts[strings.ToLower(f.Label)]++
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		if f.Label == "" || counts[strings.ToLower(f.Label)] > 1 {
			names[i] = f.Name
			continue
		}
		names[i] = f.Label
	}
	return names
}

func salesforceFieldType(t string) model.FieldType {
	switch t {
	case "date":
		return model.FieldTypeDate
	case "datetime":
		return model.FieldTypeDateTime
	case "double", "currency", "int", "percent":
		return model.FieldTypeNumber
	case "boolean":
		return model.FieldTypeCheckbox
	case "picklist", "multipicklist":
		return model.FieldTypeSelect
	case "id", "reference", "string", "textarea", "email", "phone", "url":
		return model.FieldTypeText
	}
	return model.FieldTypeOther
}

func salesforceValue(v any, sfType string) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if val == "" {
			return nil
		}
		switch sfType {
		case "picklist":
			return model.Option{Name: val}
		case "multipicklist":
			var opts []model.Option
			for _, part := range strings.Split(val, ";") {
				if part = strings.TrimSpace(part); part != "" {
					opts = append(opts, model.Option{Name: part})
				}
			}
			return opts
		}
		return val
	case bool:
		if !val {
			return nil
		}
		return true
	}
	return normalizeCell(v)
}
