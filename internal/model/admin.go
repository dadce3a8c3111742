package model

import "time"

// AdminToken is the claim carried by admin access tokens.
type AdminToken struct {
	Role string `json:"role"`
}

type AdminLoginRequest struct {
	Password string `json:"password"`
}

type AdminLoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

type UnmintedUser struct {
	Fid            int64      `json:"fid"`
	Username       string     `json:"username"`
	WarpletTokenID string     `json:"warplet_token_id,omitempty"`
	ImageData      string     `json:"image_data,omitempty"`
	GeneratedAt    time.Time  `json:"generated_at"`
	CastSent       bool       `json:"cast_sent"`
	CastSentAt     *time.Time `json:"cast_sent_at,omitempty"`
}

type GetUnconvertedRequest struct {
	IncludeContacted bool `json:"include_contacted"`
	IncludeImage     bool `json:"include_image"`
	Offset           int  `json:"offset"`
	Limit            int  `json:"limit"`
}

type GetUnconvertedResponse struct {
	Users []UnmintedUser `json:"users"`
	Total int64          `json:"total"`
}

type MarkContactedRequest struct {
	Fids []int64 `json:"fids"`
}

type MarkContactedResponse struct {
	Updated int64 `json:"updated"`
}

type SendCastRequest struct {
	Fids       []int64           `json:"fids"`
	Template   string            `json:"template"`
	Variables  map[string]string `json:"variables"`
	BatchSize  int               `json:"batch_size"`
	EmbedImage bool              `json:"embed_image"`
}

type SendCastResponse struct {
	Sent   []int64  `json:"sent"`
	Failed []int64  `json:"failed"`
	Casts  []string `json:"casts"`
}

type TestAPIKeyRequest struct{}

type TestAPIKeyResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}
