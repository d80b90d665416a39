package salesforce

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// DefaultObject is the SObject read when none is configured.
const DefaultObject = "Lead"

// readableTypes are the describe field types that map onto enquiry values.
// Compound and binary types (address, location, base64) are skipped.
var readableTypes = []string{
	"id", "string", "picklist", "multipicklist", "textarea", "email", "phone", "url",
	"date", "datetime", "boolean", "double", "currency", "int", "percent", "reference",
}

// Readable reports whether a field's type can be selected as an enquiry value.
func (f SObjectField) Readable() bool {
	return slices.Contains(readableTypes, f.Type)
}

// SelectFields returns the readable fields of desc. When names is non-empty
// only those fields (by API name, case-insensitive) are kept, in names
// order; Id is always included first.
func SelectFields(desc *SObjectDescription, names []string) []SObjectField {
	var idField *SObjectField
	byName := make(map[string]SObjectField, len(desc.Fields))
	var readable []SObjectField
	for _, f := range desc.Fields {
		if !f.Readable() {
			continue
		}
		if f.Name == "Id" {
			idField = &f
			continue
		}
		byName[strings.ToLower(f.Name)] = f
		readable = append(readable, f)
	}

	var out []SObjectField
	if idField != nil {
		out = append(out, *idField)
	}
	if len(names) == 0 {
		return append(out, readable...)
	}
	for _, n := range names {
		if f, ok := byName[strings.ToLower(n)]; ok {
			out = append(out, f)
		}
	}
	return out
}

// QueryOptions narrows a record query.
type QueryOptions struct {
	// CreatedSince limits records to CreatedDate >= CreatedSince when set.
	CreatedSince time.Time
	// Where is an extra SOQL condition ANDed with the others.
	Where string
}

// BuildSOQL renders the record query for object and fields.
func BuildSOQL(object string, fields []SObjectField, opts QueryOptions) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	var conds []string
	if !opts.CreatedSince.IsZero() {
		conds = append(conds, "CreatedDate >= "+opts.CreatedSince.UTC().Format("2006-01-02T15:04:05Z"))
	}
	if w := strings.TrimSpace(opts.Where); w != "" {
		conds = append(conds, "("+w+")")
	}

	soql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), object)
	if len(conds) > 0 {
		soql += " WHERE " + strings.Join(conds, " AND ")
	}
	return soql + " ORDER BY CreatedDate ASC"
}

// QueryRecords describes object, selects its readable fields (or the named
// subset) and returns the field metadata with every matching record.
func QueryRecords(ctx context.Context, c Client, object string, names []string, opts QueryOptions) ([]SObjectField, []map[string]any, error) {
	desc, err := c.DescribeSObject(ctx, object)
	if err != nil {
		return nil, nil, eris.Wrap(err, fmt.Sprintf("sf: query records %s", object))
	}
	fields := SelectFields(desc, names)
	if len(fields) == 0 {
		return nil, nil, eris.Errorf("sf: no readable fields on %s", object)
	}

	var records []map[string]any
	if err := c.Query(ctx, BuildSOQL(object, fields, opts), &records); err != nil {
		return nil, nil, eris.Wrap(err, fmt.Sprintf("sf: query records %s", object))
	}
	return fields, records, nil
}
