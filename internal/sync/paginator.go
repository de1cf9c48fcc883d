package sync

import (
	"context"
	"strconv"
	"time"

	"crmsync/internal/client/crm"
)

// SearchClient is the slice of the CRM client the paginator needs.
type SearchClient interface {
	SearchObjects(ctx context.Context, accessToken, objectType string, req *crm.SearchRequest) (*crm.SearchPage, error)
}

type pageCursor struct {
	after            *int
	lastModifiedDate *time.Time
}

// Paginator walks one entity's search results from a watermark forward.
// It pages by offset until the provider's offset ceiling, then switches to
// date-based resumption: the offset resets and the filter window restarts
// at the last record's modification timestamp. Boundary records may repeat;
// downstream delivery is at-least-once.
type Paginator struct {
	Client        SearchClient
	Retrier       *Retrier
	Entity        *EntitySpec
	PageSize      int
	OffsetCeiling int

	AccessToken string
	TokenExpiry time.Time
	Watermark   time.Time
	Now         time.Time

	cursor pageCursor
	done   bool
}

// Next fetches one page. Returns (nil, nil) once the walk is exhausted.
// Pages are returned even when empty so callers observe every fetch.
func (p *Paginator) Next(ctx context.Context) (*crm.SearchPage, error) {
	if p.done {
		return nil, nil
	}

	since := p.Watermark
	if p.cursor.lastModifiedDate != nil && p.cursor.lastModifiedDate.After(since) {
		since = *p.cursor.lastModifiedDate
	}
	req := &crm.SearchRequest{
		FilterGroups: []crm.FilterGroup{{
			Filters: []crm.Filter{{
				PropertyName: p.Entity.FilterProperty,
				Operator:     "BETWEEN",
				Value:        epochMillis(since),
				HighValue:    epochMillis(p.Now),
			}},
		}},
		Sorts: []crm.Sort{{
			PropertyName: p.Entity.FilterProperty,
			Direction:    "ASCENDING",
		}},
		Properties: p.Entity.Properties,
		Limit:      p.PageSize,
	}
	if p.cursor.after != nil {
		req.After = strconv.Itoa(*p.cursor.after)
	}

	page, err := p.Retrier.Do(ctx, p.TokenExpiry, func(ctx context.Context) (*crm.SearchPage, error) {
		return p.Client.SearchObjects(ctx, p.AccessToken, p.Entity.ObjectType, req)
	})
	if err != nil {
		return nil, err
	}

	if err := p.advance(page); err != nil {
		return nil, err
	}
	return page, nil
}

func (p *Paginator) advance(page *crm.SearchPage) error {
	if page.Paging == nil || page.Paging.Next == nil || page.Paging.Next.After == "" {
		p.done = true
		return nil
	}
	next, err := strconv.Atoi(page.Paging.Next.After)
	if err != nil {
		p.done = true
		return nil
	}
	if next < p.OffsetCeiling {
		p.cursor.after = &next
		return nil
	}

	// Offset ceiling reached: resume by date instead. The last record's
	// modification timestamp becomes the new window start (inclusive).
	if len(page.Results) == 0 {
		return &MalformedRecordError{Reason: "empty page at offset ceiling"}
	}
	last := page.Results[len(page.Results)-1]
	if last.UpdatedAt.IsZero() {
		return &MalformedRecordError{RecordID: last.ID, Reason: "no modification timestamp at offset ceiling"}
	}
	ts := last.UpdatedAt
	p.cursor.after = nil
	p.cursor.lastModifiedDate = &ts
	return nil
}

func epochMillis(t time.Time) string {
	ms := t.UnixMilli()
	if ms < 0 {
		ms = 0
	}
	return strconv.FormatInt(ms, 10)
}
