package alchemy

import "context"

type IEndpoint interface {
	GetNFTsForOwner(ctx context.Context, owner, contract string) ([]NFT, error)
	GetNFTsForContract(ctx context.Context, contract, pageKey string, limit int) (ContractPage, error)
}
