package rarible

type Content struct {
	Type           string `mapstructure:"@type"`
	URL            string `mapstructure:"url"`
	Representation string `mapstructure:"representation"`
	MimeType       string `mapstructure:"mimeType"`
}

type Meta struct {
	Name        string    `mapstructure:"name"`
	Description string    `mapstructure:"description"`
	Content     []Content `mapstructure:"content"`
}

type Item struct {
	ID       string `mapstructure:"id"`
	TokenID  string `mapstructure:"tokenId"`
	Contract string `mapstructure:"contract"`
	Deleted  bool   `mapstructure:"deleted"`
	Meta     *Meta  `mapstructure:"meta"`
}

type Page struct {
	Items        []Item `mapstructure:"items"`
	Continuation string `mapstructure:"continuation"`
}

// ImageURL returns the original image of the item, or any image when no
// original representation exists.
func (i Item) ImageURL() string {
	if i.Meta == nil {
		return ""
	}

	fallback := ""
	for _, c := range i.Meta.Content {
		if c.Type != "IMAGE" || c.URL == "" {
			continue
		}

		if c.Representation == "ORIGINAL" {
			return c.URL
		}

		if fallback == "" {
			fallback = c.URL
		}
	}

	return fallback
}
