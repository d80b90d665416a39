package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher defines the interface for downloading remote exports.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Options configures an Opener.
type Options struct {
	HTTP HTTPOptions
	FTP  FTPOptions
}

// Opener resolves an export location (local path, file://, http(s)://,
// ftp://) to its contents.
type Opener struct {
	http Fetcher
	ftp  Fetcher
}

// NewOpener creates an Opener with HTTP and FTP fetchers built from opts.
func NewOpener(opts Options) *Opener {
	return &Opener{
		http: NewHTTPFetcher(opts.HTTP),
		ftp:  NewFTPFetcher(opts.FTP),
	}
}

// NewOpenerWith creates an Opener over the given fetchers.
func NewOpenerWith(http, ftp Fetcher) *Opener {
	return &Opener{http: http, ftp: ftp}
}

// fetcherFor returns the remote fetcher for location, or the local path when
// location is not a URL.
func (o *Opener) fetcherFor(location string) (Fetcher, string) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, location
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return o.http, ""
	case "ftp":
		return o.ftp, ""
	case "file":
		return nil, u.Path
	}
	return nil, location
}

// Open returns a reader over the contents of location. The caller must
// close it.
func (o *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	f, local := o.fetcherFor(location)
	if f == nil {
		file, err := os.Open(local)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", local)
		}
		return file, nil
	}

	zap.L().Debug("fetcher: downloading", zap.String("location", location))
	rc, err := f.Download(ctx, location)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: download %s", location)
	}
	return rc, nil
}

// Localize returns a local file path holding the contents of location.
// Local paths are returned as is; remote files are downloaded into dir.
func (o *Opener) Localize(ctx context.Context, location, dir string) (string, error) {
	f, local := o.fetcherFor(location)
	if f == nil {
		if _, err := os.Stat(local); err != nil {
			return "", eris.Wrapf(err, "fetcher: stat %s", local)
		}
		return local, nil
	}

	dest := filepath.Join(dir, RemoteName(location))
	n, err := f.DownloadToFile(ctx, location, dest)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: download %s", location)
	}
	zap.L().Debug("fetcher: downloaded",
		zap.String("location", location),
		zap.String("path", dest),
		zap.Int64("bytes", n),
	)
	return dest, nil
}

// RemoteName returns the file name a location would be saved under.
func RemoteName(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return "download"
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "download"
	}
	return name
}

// Ext returns the lower-cased extension of the file a location names,
// ignoring any query string.
func Ext(location string) string {
	if u, err := url.Parse(location); err == nil && u.Scheme != "" {
		return strings.ToLower(path.Ext(u.Path))
	}
	return strings.ToLower(filepath.Ext(location))
}
