package alchemy

type Contract struct {
	Address string `mapstructure:"address"`
}

type Image struct {
	CachedURL    string `mapstructure:"cachedUrl"`
	PngURL       string `mapstructure:"pngUrl"`
	ThumbnailURL string `mapstructure:"thumbnailUrl"`
	OriginalURL  string `mapstructure:"originalUrl"`
}

type Raw struct {
	TokenURI string         `mapstructure:"tokenUri"`
	Metadata map[string]any `mapstructure:"metadata"`
}

type NFT struct {
	Contract    Contract `mapstructure:"contract"`
	TokenID     string   `mapstructure:"tokenId"`
	Name        string   `mapstructure:"name"`
	Description string   `mapstructure:"description"`
	Image       Image    `mapstructure:"image"`
	Raw         Raw      `mapstructure:"raw"`
	TokenURI    string   `mapstructure:"tokenUri"`
}

// ImageURL prefers the copy cached by alchemy, then the metadata image.
func (n NFT) ImageURL() string {
	for _, url := range []string{n.Image.CachedURL, n.Image.PngURL, n.Image.OriginalURL} {
		if url != "" {
			return url
		}
	}

	if image, ok := n.Raw.Metadata["image"].(string); ok {
		return image
	}

	return ""
}

type OwnedPage struct {
	OwnedNFTs []NFT  `mapstructure:"ownedNfts"`
	PageKey   string `mapstructure:"pageKey"`
}

type ContractPage struct {
	NFTs    []NFT  `mapstructure:"nfts"`
	PageKey string `mapstructure:"pageKey"`
}
