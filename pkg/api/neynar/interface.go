package neynar

import "context"

type IEndpoint interface {
	GetUsers(ctx context.Context, fids []int64) ([]User, error)
	PublishCast(ctx context.Context, text string, embeds []string) (Cast, error)
	TestAPIKey(ctx context.Context) error
}
