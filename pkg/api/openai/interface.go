package openai

import "context"

type IEndpoint interface {
	EditImage(ctx context.Context, image []byte, mime string) ([]byte, error)
}
