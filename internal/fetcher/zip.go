package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractZIPExport extracts the table file from an export archive and returns
// its path. Candidates are entries whose extension is one of exts; earlier
// extensions win, and within one extension a Notion "_all" file (every row,
// not just the exported view) beats the others. Remaining ties keep archive
// order. Directories and macOS metadata are skipped.
func ExtractZIPExport(zipPath, destDir string, exts ...string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	var (
		best     *zip.File
		bestRank int
	)
	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		rank, ok := exportRank(f.Name, exts)
		if ok && (best == nil || rank < bestRank) {
			best, bestRank = f, rank
		}
	}
	if best == nil {
		return "", eris.Errorf("zip: no %s file in archive", strings.Join(exts, "/"))
	}
	return extractZIPEntry(best, destDir)
}

// exportRank orders archive entries for ExtractZIPExport; lower is better.
func exportRank(name string, exts []string) (int, bool) {
	ext := strings.ToLower(path.Ext(name))
	i := slices.Index(exts, ext)
	if i < 0 {
		return 0, false
	}
	rank := i * 2
	if !strings.HasSuffix(strings.ToLower(strings.TrimSuffix(name, path.Ext(name))), "_all") {
		rank++
	}
	return rank, true
}

// extractZIPEntry extracts a single zip.File to the destination directory.
// Returns the extracted file path.
func extractZIPEntry(f *zip.File, destDir string) (string, error) {
	// Sanitize against zip slip
	destPath := filepath.Join(destDir, f.Name)
	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", eris.Errorf("zip: illegal path %q (zip slip attempt)", f.Name)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", eris.Wrap(err, "zip: create parent directory")
	}

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrap(err, "zip: open entry")
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return "", eris.Wrap(err, "zip: create file")
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return "", eris.Wrap(err, "zip: write file")
	}

	return destPath, nil
}
