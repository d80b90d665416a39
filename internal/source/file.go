package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enquiry-cli/internal/fetcher"
	"github.com/sells-group/enquiry-cli/internal/model"
)

// Export formats a FileSource understands.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
	FormatZIP  = "zip"
)

// FileOptions configures a FileSource.
type FileOptions struct {
	// Location is a local path, file://, http(s):// or ftp:// URL.
	Location string
	// Format overrides the format implied by the location's extension.
	Format string
	// Sheet selects an XLSX sheet by name; the first sheet when empty.
	Sheet string
	// CreatedField exposes JSON record creation times under this name.
	CreatedField string
	// FieldTypes overrides inferred column types.
	FieldTypes FieldTypes
}

// FileSource reads a CSV, XLSX, JSON or zipped export.
type FileSource struct {
	opener *fetcher.Opener
	opts   FileOptions
}

// NewFileSource creates a FileSource reading through opener.
func NewFileSource(opener *fetcher.Opener, opts FileOptions) *FileSource {
	return &FileSource{opener: opener, opts: opts}
}

// Name returns the export location.
func (s *FileSource) Name() string {
	return s.opts.Location
}

// Load reads the export into a table named after its file.
func (s *FileSource) Load(ctx context.Context) (*model.Table, error) {
	if s.opts.Location == "" {
		return nil, eris.New("source: file location is required")
	}
	format := strings.ToLower(s.opts.Format)
	if format == "" {
		format = strings.TrimPrefix(fetcher.Ext(s.opts.Location), ".")
	}
	name := tableName(fetcher.RemoteName(s.opts.Location))

	log := zap.L().With(zap.String("component", "source"), zap.String("location", s.opts.Location))
	log.Debug("source: loading export", zap.String("format", format))

	var (
		table *model.Table
		err   error
	)
	switch format {
	case FormatCSV, FormatJSON:
		table, err = s.loadStream(ctx, s.opts.Location, format, name)
	case FormatXLSX, FormatZIP:
		table, err = s.loadLocal(ctx, format, name)
	default:
		return nil, eris.Errorf("source: unsupported export format %q", format)
	}
	if err != nil {
		return nil, err
	}

	log.Info("source: loaded export",
		zap.String("table", table.Name),
		zap.Int("fields", len(table.Fields)),
		zap.Int("records", len(table.Records)),
	)
	return table, nil
}

func (s *FileSource) loadStream(ctx context.Context, location, format, name string) (*model.Table, error) {
	rc, err := s.opener.Open(ctx, location)
	if err != nil {
		return nil, eris.Wrap(err, "source: open export")
	}
	defer rc.Close() //nolint:errcheck

	if format == FormatJSON {
		return ReadJSON(ctx, rc, name, s.opts.CreatedField, s.opts.FieldTypes)
	}
	return ReadCSV(ctx, rc, name, s.opts.FieldTypes)
}

// loadLocal handles formats that need a file on disk: spreadsheets and
// zipped exports.
func (s *FileSource) loadLocal(ctx context.Context, format, name string) (*model.Table, error) {
	dir, err := os.MkdirTemp("", "enquiry-export-*")
	if err != nil {
		return nil, eris.Wrap(err, "source: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	path, err := s.opener.Localize(ctx, s.opts.Location, dir)
	if err != nil {
		return nil, eris.Wrap(err, "source: fetch export")
	}

	if format == FormatZIP {
		path, err = fetcher.ExtractZIPExport(path, dir, ".csv", ".xlsx", ".json")
		if err != nil {
			return nil, eris.Wrap(err, "source: extract export")
		}
		name = tableName(filepath.Base(path))
		inner := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		if inner != FormatXLSX {
			return s.loadStream(ctx, path, inner, name)
		}
	}

	return ReadXLSX(path, name, fetcher.XLSXOptions{SheetName: s.opts.Sheet}, s.opts.FieldTypes)
}

// tableName strips the extension from an export's file name.
func tableName(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file))
}
