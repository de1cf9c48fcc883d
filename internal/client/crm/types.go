package crm

import "time"

// RemoteRecord is one object returned by the search API. Immutable once
// fetched; Properties only carries what the search request asked for.
type RemoteRecord struct {
	ID         string            `json:"id"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	Properties map[string]string `json:"properties"`
}

type Filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value,omitempty"`
	HighValue    string `json:"highValue,omitempty"`
}

type FilterGroup struct {
	Filters []Filter `json:"filters"`
}

type Sort struct {
	PropertyName string `json:"propertyName"`
	Direction    string `json:"direction"`
}

type SearchRequest struct {
	FilterGroups []FilterGroup `json:"filterGroups"`
	Sorts        []Sort        `json:"sorts,omitempty"`
	Properties   []string      `json:"properties,omitempty"`
	Limit        int           `json:"limit"`
	After        string        `json:"after,omitempty"`
}

type PagingNext struct {
	After string `json:"after"`
}

type Paging struct {
	Next *PagingNext `json:"next,omitempty"`
}

type SearchPage struct {
	Total   int            `json:"total"`
	Results []RemoteRecord `json:"results"`
	Paging  *Paging        `json:"paging,omitempty"`
}

type associationEndpoint struct {
	ID string `json:"id"`
}

type associationResult struct {
	From associationEndpoint   `json:"from"`
	To   []associationEndpoint `json:"to"`
}

type associationBatchRequest struct {
	Inputs []associationEndpoint `json:"inputs"`
}

type associationBatchResponse struct {
	Results []associationResult `json:"results"`
}
