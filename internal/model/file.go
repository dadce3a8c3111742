package model

type UploadImageRequest struct {
	Fid  int64  `json:"fid"`
	Name string `json:"name"`
	Mime string `json:"mime"`
	Data string `json:"data"`
}

type UploadImageResponse struct {
	Url        string `json:"url"`
	PreviewUrl string `json:"preview_url"`
}
