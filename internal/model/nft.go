package model

// NFT is the normalized shape of an item of the Warplets or Geoplets
// collection, whatever marketplace it was read from.
type NFT struct {
	TokenID     string `json:"token_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Owner       string `json:"owner,omitempty"`
	Contract    string `json:"contract"`
}

type GetWarpletsRequest struct {
	Address string `json:"address"`
}

type GetWarpletsResponse struct {
	Items []NFT `json:"items"`
}

type GetGalleryRequest struct {
	Continuation string `json:"continuation"`
	Size         int    `json:"size"`
}

type GetGalleryResponse struct {
	Items        []NFT  `json:"items"`
	Continuation string `json:"continuation,omitempty"`
}
