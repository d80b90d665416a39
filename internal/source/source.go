// Package source loads enquiry tables from Notion, Salesforce and file
// exports into the model the metrics engine reads.
package source

import (
	"context"

	"github.com/sells-group/enquiry-cli/internal/model"
)

// Source supplies a complete table of enquiry records.
type Source interface {
	// Name identifies the source in logs and output.
	Name() string
	// Load reads every record. The returned table is owned by the caller.
	Load(ctx context.Context) (*model.Table, error)
}

// Kinds of record source.
const (
	KindNotion     = "notion"
	KindSalesforce = "salesforce"
	KindFile       = "file"
)
