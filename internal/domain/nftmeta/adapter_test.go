package nftmeta

import (
	"context"
	"encoding/base64"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/geoplet/backend/pkg/api"
	"github.com/geoplet/backend/pkg/api/rarible"
	"github.com/stretchr/testify/require"
)

type mockTokenURIReader struct {
	uris  map[string]string
	calls int
}

func (m *mockTokenURIReader) TokenURI(ctx context.Context, contract common.Address, tokenID *big.Int) (string, error) {
	m.calls++
	uri, ok := m.uris[tokenID.String()]
	if !ok {
		return "", errors.New("execution reverted")
	}

	return uri, nil
}

func jsonBase64(s string) string {
	return "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(s))
}

func TestAdapter_Normalize(t *testing.T) {
	reader := &mockTokenURIReader{uris: map[string]string{
		"2": jsonBase64(`{"name":"Geoplet #2","description":"onchain","image":"data:image/jpeg;base64,AAA"}`),
		"3": `data:application/json,{"name":"Geoplet%20#3","image":"ipfs://cid/3.png"}`,
		"4": jsonBase64(`{"name":"no image"}`),
	}}

	adapter := NewAdapter(RecordResolver{}, NewTokenURIResolver(reader, nil))
	ctx := context.Background()

	t.Run("marketplace image is used first", func(t *testing.T) {
		nft, err := adapter.Normalize(ctx, RawItem{TokenID: "1", Name: "Geoplet #1", Image: "https://img/1.png"})
		require.NoError(t, err)
		require.Equal(t, "https://img/1.png", nft.Image)
		require.Equal(t, 0, reader.calls)
	})

	t.Run("fallback to onchain base64 metadata", func(t *testing.T) {
		nft, err := adapter.Normalize(ctx, RawItem{TokenID: "2", Contract: "0xabc"})
		require.NoError(t, err)
		require.Equal(t, "data:image/jpeg;base64,AAA", nft.Image)
		require.Equal(t, "Geoplet #2", nft.Name)
		require.Equal(t, "onchain", nft.Description)
	})

	t.Run("plain json and ipfs image", func(t *testing.T) {
		nft, err := adapter.Normalize(ctx, RawItem{TokenID: "3", Name: "kept"})
		require.NoError(t, err)
		require.Equal(t, DefaultIPFSGateway+"cid/3.png", nft.Image)
		require.Equal(t, "kept", nft.Name)
	})

	t.Run("exhausted", func(t *testing.T) {
		_, err := adapter.Normalize(ctx, RawItem{TokenID: "4"})
		require.ErrorIs(t, err, ErrExhausted)

		_, err = adapter.Normalize(ctx, RawItem{TokenID: "5"})
		require.ErrorIs(t, err, ErrExhausted)
	})
}

func TestAdapter_NormalizeAllDropsImageless(t *testing.T) {
	reader := &mockTokenURIReader{uris: map[string]string{
		"2": jsonBase64(`{"image":"https://img/2.png"}`),
	}}
	adapter := NewAdapter(RecordResolver{}, NewTokenURIResolver(reader, nil))

	nfts := adapter.NormalizeAll(context.Background(), []RawItem{
		{TokenID: "1", Image: "https://img/1.png"},
		{TokenID: "9"},
		{TokenID: "2"},
	})

	require.Len(t, nfts, 2)
	require.Equal(t, "1", nfts[0].TokenID)
	require.Equal(t, "2", nfts[1].TokenID)
}

func TestTokenURIResolver_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"remote","image":"https://img/remote.png"}`))
	}))
	defer srv.Close()

	resolver := NewTokenURIResolver(nil, api.NewGenerator())
	meta, err := resolver.Resolve(context.Background(), RawItem{TokenID: "1", TokenURI: srv.URL + "/1.json"})
	require.NoError(t, err)
	require.Equal(t, "https://img/remote.png", meta.Image)
	require.Equal(t, "remote", meta.Name)
}

func TestFromRarible(t *testing.T) {
	raw := FromRarible(rarible.Item{
		TokenID:  "12",
		Contract: "BASE:0xabc",
		Meta: &rarible.Meta{
			Name:    "Warplet 12",
			Content: []rarible.Content{{Type: "IMAGE", URL: "https://img/12.png"}},
		},
	}, "0xowner")

	require.Equal(t, RawItem{
		TokenID:  "12",
		Contract: "0xabc",
		Name:     "Warplet 12",
		Image:    "https://img/12.png",
		Owner:    "0xowner",
	}, raw)
}
