package model

import (
	"net/http"
	"strconv"
)

type GenerateRequest struct {
	Fid            int64  `json:"fid"`
	Username       string `json:"username"`
	ImageURL       string `json:"image_url"`
	WarpletTokenID string `json:"warplet_token_id"`
}

type GenerateResponse struct {
	Image string `json:"image"`
	Size  int    `json:"size"`
}

type ImageProxyRequest struct {
	URL string `json:"url"`
}

// ImageProxyResponse is written as the image itself, not as JSON.
type ImageProxyResponse struct {
	Mime         string
	Data         []byte
	CacheControl string
}

func (r *ImageProxyResponse) WriteRaw(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", r.Mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(r.Data)))
	if r.CacheControl != "" {
		w.Header().Set("Cache-Control", r.CacheControl)
	}

	w.WriteHeader(http.StatusOK)
	_, err := w.Write(r.Data)
	return err
}
