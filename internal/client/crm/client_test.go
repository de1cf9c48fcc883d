package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSearchObjects(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total": 150,
			"results": [{
				"id": "101",
				"createdAt": "2023-06-01T10:00:00Z",
				"updatedAt": "2023-06-02T10:00:00Z",
				"properties": {"email": "a@b.com"}
			}],
			"paging": {"next": {"after": "100"}}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL)
	page, err := client.SearchObjects(context.Background(), "tok", "contacts", &SearchRequest{
		Limit: 100,
		FilterGroups: []FilterGroup{{Filters: []Filter{{
			PropertyName: "lastmodifieddate",
			Operator:     "BETWEEN",
			Value:        "1",
			HighValue:    "2",
		}}}},
	})
	require.NoError(t, err)

	require.Equal(t, "/crm/v3/objects/contacts/search", gotPath)
	require.Equal(t, "Bearer tok", gotAuth)
	require.Equal(t, 100, gotReq.Limit)
	require.Equal(t, "BETWEEN", gotReq.FilterGroups[0].Filters[0].Operator)

	require.Len(t, page.Results, 1)
	require.Equal(t, "101", page.Results[0].ID)
	require.Equal(t, time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC), page.Results[0].CreatedAt)
	require.Equal(t, "100", page.Paging.Next.After)
}

func TestSearchObjectsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL)
	_, err := client.SearchObjects(context.Background(), "tok", "contacts", &SearchRequest{Limit: 100})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestContactCompanyAssociations(t *testing.T) {
	var gotReq associationBatchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/crm/v4/associations/contacts/companies/batch/read", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{"from": {"id": "101"}, "to": [{"id": "555"}, {"id": "556"}]},
				{"from": {"id": "102"}, "to": []}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL)
	out, err := client.ContactCompanyAssociations(context.Background(), "tok", []string{"101", "102", "103"})
	require.NoError(t, err)

	require.Len(t, gotReq.Inputs, 3)
	// First company wins; contacts with no match stay absent.
	require.Equal(t, map[string]string{"101": "555"}, out)
}

func TestContactCompanyAssociationsEmptyInput(t *testing.T) {
	client := NewClient(http.DefaultClient, "http://unused.invalid")
	out, err := client.ContactCompanyAssociations(context.Background(), "tok", nil)
	require.NoError(t, err)
	require.Empty(t, out)
}
