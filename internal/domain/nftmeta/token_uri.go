package nftmeta

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/geoplet/backend/pkg/api"
	"github.com/geoplet/backend/pkg/blockchain/eth"
)

const (
	jsonBase64Prefix = "data:application/json;base64,"
	jsonUTF8Prefix   = "data:application/json;utf8,"
	jsonPlainPrefix  = "data:application/json,"

	DefaultIPFSGateway = "https://ipfs.io/ipfs/"
)

// TokenURIReader reads the metadata uri of a token from the chain.
type TokenURIReader interface {
	TokenURI(ctx context.Context, contract common.Address, tokenID *big.Int) (string, error)
}

type chainTokenURIReader struct {
	client eth.EthClient
}

func NewChainTokenURIReader(client eth.EthClient) *chainTokenURIReader {
	return &chainTokenURIReader{client: client}
}

func (r *chainTokenURIReader) TokenURI(
	ctx context.Context, contract common.Address, tokenID *big.Int,
) (string, error) {
	return eth.TokenURI(ctx, r.client, contract, tokenID)
}

// TokenURIResolver reads the metadata from the tokenURI of the token, on
// chain if the marketplace did not give it.
type TokenURIResolver struct {
	reader       TokenURIReader
	apiGenerator api.Generator
	ipfsGateway  string
}

func NewTokenURIResolver(reader TokenURIReader, apiGenerator api.Generator) *TokenURIResolver {
	return &TokenURIResolver{
		reader:       reader,
		apiGenerator: apiGenerator,
		ipfsGateway:  DefaultIPFSGateway,
	}
}

func (r *TokenURIResolver) Resolve(ctx context.Context, item RawItem) (Metadata, error) {
	uri := item.TokenURI
	if uri == "" {
		if r.reader == nil {
			return Metadata{}, errors.New("no token uri reader")
		}

		tokenID, ok := new(big.Int).SetString(item.TokenID, 10)
		if !ok {
			return Metadata{}, fmt.Errorf("invalid token id %s", item.TokenID)
		}

		var err error
		uri, err = r.reader.TokenURI(ctx, common.HexToAddress(item.Contract), tokenID)
		if err != nil {
			return Metadata{}, err
		}
	}

	raw, err := r.load(ctx, uri)
	if err != nil {
		return Metadata{}, err
	}

	var doc struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Image       string `json:"image"`
		ImageData   string `json:"image_data"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Metadata{}, fmt.Errorf("invalid metadata json: %w", err)
	}

	image := r.gatewayURL(doc.Image)
	if image == "" && doc.ImageData != "" {
		image = "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(doc.ImageData))
	}

	return Metadata{Name: doc.Name, Description: doc.Description, Image: image}, nil
}

func (r *TokenURIResolver) load(ctx context.Context, uri string) ([]byte, error) {
	switch {
	case strings.HasPrefix(uri, jsonBase64Prefix):
		return base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, jsonBase64Prefix))

	case strings.HasPrefix(uri, jsonUTF8Prefix):
		return []byte(strings.TrimPrefix(uri, jsonUTF8Prefix)), nil

	case strings.HasPrefix(uri, jsonPlainPrefix):
		s, err := url.PathUnescape(strings.TrimPrefix(uri, jsonPlainPrefix))
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	}

	target := r.gatewayURL(uri)
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return nil, fmt.Errorf("unsupported token uri %.40s", uri)
	}

	if r.apiGenerator == nil {
		return nil, errors.New("no http client to load token uri")
	}

	resp, err := r.apiGenerator.New(target).GET(ctx)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("token uri returned status %d", resp.Code)
	}

	return resp.RawBody, nil
}

func (r *TokenURIResolver) gatewayURL(uri string) string {
	if strings.HasPrefix(uri, "ipfs://") {
		path := strings.TrimPrefix(uri, "ipfs://")
		path = strings.TrimPrefix(path, "ipfs/")
		return r.ipfsGateway + path
	}

	return uri
}
