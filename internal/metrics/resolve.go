package metrics

import (
	"strings"

	"github.com/sells-group/enquiry-cli/internal/model"
)

// Role keyword lists, highest priority first.
var (
	dateCreatedKeywords = []string{"date created", "created date"}
	discoveryKeywords   = []string{"discovery call", "discovery", "qualification call"}
	liveCallKeywords    = []string{"live call", "demo call", "presentation call"}
	sourceKeywords      = []string{"source", "origin", "channel"}
)

// ResolveField returns the best field for an ordered keyword list. Keywords
// are tried in priority order; the first field (in declaration order) whose
// lower-cased name contains the keyword wins. accept, when non-nil, filters
// candidate fields before matching.
func ResolveField(fields []model.Field, keywords []string, accept func(model.Field) bool) (model.Field, bool) {
	for _, kw := range keywords {
		for _, f := range fields {
			if accept != nil && !accept(f) {
				continue
			}
			if strings.Contains(f.LowerName(), kw) {
				return f, true
			}
		}
	}
	return model.Field{}, false
}

func isDateField(f model.Field) bool {
	return f.Type.IsDate()
}

// isPlainCreated matches "Created" style fields that are not themselves a
// "date created" column.
func isPlainCreated(f model.Field) bool {
	name := f.LowerName()
	return name == "created" || (strings.Contains(name, "created") && !strings.Contains(name, "date"))
}

// Roles holds the field chosen for each metric role. A nil entry means the
// role could not be resolved and every metric depending on it degrades to
// zero.
type Roles struct {
	// Date is the primary date tier: the configured field, or a
	// "date created" style field.
	Date *model.Field
	// Created is the fallback date tier used when Date has no value.
	Created   *model.Field
	Discovery *model.Field
	LiveCall  *model.Field
	Source    *model.Field
}

// ResolveRoles resolves every role against the table's fields. configured
// names an explicitly chosen date field and may be empty; a configured name
// that matches no field is ignored.
func ResolveRoles(fields []model.Field, configured string) Roles {
	var roles Roles

	if configured != "" {
		reg := model.NewFieldRegistry(fields)
		f, ok := reg.ByName(configured)
		if !ok {
			f, ok = reg.ByNameFold(configured)
		}
		if ok {
			roles.Date = &f
		}
	}

	if roles.Date == nil {
		if f, ok := ResolveField(fields, dateCreatedKeywords, isDateField); ok {
			roles.Date = &f
		}
	}

	for _, f := range fields {
		if !isDateField(f) || !isPlainCreated(f) {
			continue
		}
		if roles.Date != nil && roles.Date.Name == f.Name {
			continue
		}
		created := f
		roles.Created = &created
		break
	}

	if f, ok := ResolveField(fields, discoveryKeywords, nil); ok {
		roles.Discovery = &f
	}
	if f, ok := ResolveField(fields, liveCallKeywords, nil); ok {
		roles.LiveCall = &f
	}
	if f, ok := ResolveField(fields, sourceKeywords, nil); ok {
		roles.Source = &f
	}
	return roles
}

// HasDate reports whether any date tier resolved.
func (r Roles) HasDate() bool {
	return r.Date != nil || r.Created != nil
}

// Names reports the resolved field names for display.
func (r Roles) Names() model.ResolvedFields {
	return model.ResolvedFields{
		Date:      fieldName(r.Date),
		Created:   fieldName(r.Created),
		Discovery: fieldName(r.Discovery),
		LiveCall:  fieldName(r.LiveCall),
		Source:    fieldName(r.Source),
	}
}

func fieldName(f *model.Field) string {
	if f == nil {
		return ""
	}
	return f.Name
}
