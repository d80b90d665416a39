package metrics

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/enquiry-cli/internal/model"
)

// ErrDateFieldRequired signals that no usable date field is configured or
// detectable. It is raised by callers before computing, never by Compute.
var ErrDateFieldRequired = eris.New("metrics: date field required")

// DateConfig describes how a table's date field would be chosen.
type DateConfig struct {
	HasDateFields bool   `json:"has_date_fields"`
	Configured    string `json:"configured,omitempty"`
	AutoDetected  bool   `json:"auto_detected"`
}

// Ready reports whether metrics can be bucketed by month.
func (c DateConfig) Ready() bool {
	return c.Configured != "" || c.AutoDetected
}

// Hint returns the guidance shown when the configuration is not ready.
func (c DateConfig) Hint() string {
	if c.Ready() {
		return ""
	}
	if !c.HasDateFields {
		return "the table has no date fields: add one (e.g. \"Created Date\"), fill it in, and reload"
	}
	return "set date_field in the configuration (or --date-field) to one of the table's date fields"
}

// CheckDateConfig inspects the table's fields against the configured date
// field name. It returns ErrDateFieldRequired when neither a configured nor
// an auto-detected date field exists.
func CheckDateConfig(fields []model.Field, configured string) (DateConfig, error) {
	reg := model.NewFieldRegistry(fields)
	cfg := DateConfig{HasDateFields: len(reg.DateFields()) > 0}

	if configured != "" {
		if f, ok := reg.ByName(configured); ok {
			cfg.Configured = f.Name
		} else if f, ok := reg.ByNameFold(configured); ok {
			cfg.Configured = f.Name
		}
	}

	auto := ResolveRoles(fields, "")
	cfg.AutoDetected = auto.HasDate()

	if !cfg.Ready() {
		return cfg, ErrDateFieldRequired
	}
	return cfg, nil
}
