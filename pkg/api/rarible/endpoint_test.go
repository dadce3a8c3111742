package rarible

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geoplet/backend/config"
	"github.com/stretchr/testify/require"
)

func TestEndpoint_GetItemsByCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v0.1/items/byCollection", r.URL.Path)
		require.Equal(t, "BASE:0xabc", r.URL.Query().Get("collection"))
		require.Equal(t, "c1", r.URL.Query().Get("continuation"))
		require.Equal(t, "key", r.Header.Get("X-API-KEY"))

		_, _ = w.Write([]byte(`{
			"continuation": "c2",
			"items": [{
				"id": "BASE:0xabc:1",
				"tokenId": "1",
				"contract": "BASE:0xabc",
				"meta": {
					"name": "Geoplet #1",
					"content": [
						{"@type": "IMAGE", "url": "https://img/preview.png", "representation": "PREVIEW"},
						{"@type": "IMAGE", "url": "https://img/original.png", "representation": "ORIGINAL"}
					]
				}
			}]
		}`))
	}))
	defer srv.Close()

	e := New(config.MarketplaceConfigs{RaribleURL: srv.URL, RaribleAPIKey: "key", Blockchain: "base"})
	page, err := e.GetItemsByCollection(context.Background(), "0xabc", "c1", 20)
	require.NoError(t, err)
	require.Equal(t, "c2", page.Continuation)
	require.Len(t, page.Items, 1)
	require.Equal(t, "1", page.Items[0].TokenID)
	require.Equal(t, "https://img/original.png", page.Items[0].ImageURL())
}

func TestEndpoint_GetItemsByOwner(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "ETHEREUM:0xowner", r.URL.Query().Get("owner"))
		if r.URL.Query().Get("continuation") == "" {
			_, _ = w.Write([]byte(`{"continuation":"next","items":[
				{"tokenId":"1","contract":"BASE:0xABC"},
				{"tokenId":"2","contract":"BASE:0xother"}
			]}`))
			return
		}

		_, _ = w.Write([]byte(`{"items":[{"tokenId":"3","contract":"BASE:0xabc"}]}`))
	}))
	defer srv.Close()

	e := New(config.MarketplaceConfigs{RaribleURL: srv.URL, Blockchain: "BASE"})
	items, err := e.GetItemsByOwner(context.Background(), "0xowner", "0xabc")
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Len(t, items, 2)
	require.Equal(t, "1", items[0].TokenID)
	require.Equal(t, "3", items[1].TokenID)
	require.Equal(t, "", items[1].ImageURL())
}

func TestEndpoint_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	e := New(config.MarketplaceConfigs{RaribleURL: srv.URL, Blockchain: "BASE"})
	_, err := e.GetItemsByCollection(context.Background(), "0xabc", "", 20)
	require.Error(t, err)
}
