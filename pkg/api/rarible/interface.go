package rarible

import "context"

type IEndpoint interface {
	GetItemsByOwner(ctx context.Context, owner, collection string) ([]Item, error)
	GetItemsByCollection(ctx context.Context, collection, continuation string, size int) (Page, error)
}
