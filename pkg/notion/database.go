package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll fetches all pages from a Notion database, handling pagination.
// Rate limiting is enforced by the Client (3 req/s by default).
// Uses prefetch: starts fetching page N+1 in a goroutine while processing
// page N.
func QueryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page

	req := &notionapi.DatabaseQueryRequest{}
	if filter != nil {
		req.Filter = filter.Filter
		req.Sorts = filter.Sorts
		req.PageSize = filter.PageSize
	}

	type prefetchResult struct {
		resp *notionapi.DatabaseQueryResponse
		err  error
	}
	var prefetchCh <-chan prefetchResult

	for {
		var resp *notionapi.DatabaseQueryResponse
		var err error

		if prefetchCh != nil {
			result := <-prefetchCh
			resp, err = result.resp, result.err
		} else {
			resp, err = c.QueryDatabase(ctx, dbID, req)
		}

		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}

		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}

		nextReq := &notionapi.DatabaseQueryRequest{
			StartCursor: resp.NextCursor,
			Filter:      req.Filter,
			Sorts:       req.Sorts,
			PageSize:    req.PageSize,
		}

		ch := make(chan prefetchResult, 1)
		prefetchCh = ch
		go func() {
			r, e := c.QueryDatabase(ctx, dbID, nextReq)
			ch <- prefetchResult{resp: r, err: e}
		}()
	}

	return all, nil
}

// QueryEnquiries fetches every page of an enquiry database, oldest first,
// so that record order is stable between runs.
func QueryEnquiries(ctx context.Context, c Client, dbID string) ([]notionapi.Page, error) {
	req := &notionapi.DatabaseQueryRequest{
		Sorts: []notionapi.SortObject{
			{Timestamp: notionapi.TimestampCreated, Direction: notionapi.SortOrderASC},
		},
		PageSize: 100,
	}
	pages, err := QueryAll(ctx, c, dbID, req)
	if err != nil {
		return nil, eris.Wrap(err, "notion: query enquiries")
	}
	return pages, nil
}

// DatabaseTitle returns the plain-text title of a database.
func DatabaseTitle(db *notionapi.Database) string {
	if db == nil {
		return ""
	}
	return PlainText(db.Title)
}

// PlainText concatenates the plain text of rich-text fragments.
func PlainText(parts []notionapi.RichText) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.PlainText)
	}
	return b.String()
}
