// Package geoplet holds the ABI of the Geoplets ERC-721 contract and typed
// helpers to pack calls and unpack results.
package geoplet

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

const (
	MethodMint     = "mintGeoplet"
	MethodOwnerOf  = "ownerOf"
	MethodTokenURI = "tokenURI"
)

// Custom errors declared by the contract.
const (
	ErrFIDAlreadyMinted       = "FIDAlreadyMinted"
	ErrMaxSupplyReached       = "MaxSupplyReached"
	ErrImageTooLarge          = "ImageTooLarge"
	ErrRecipientMismatch      = "RecipientMismatch"
	ErrEmptyImage             = "EmptyImage"
	ErrSignatureExpired       = "SignatureExpired"
	ErrInvalidSignature       = "InvalidSignature"
	ErrNonceAlreadyUsed       = "NonceAlreadyUsed"
	ErrERC721NonexistentToken = "ERC721NonexistentToken"
)

var GeopletMetaData = &bind.MetaData{
	ABI: `[
	{"type":"function","name":"mintGeoplet","stateMutability":"nonpayable","inputs":[
		{"name":"voucher","type":"tuple","internalType":"struct Geoplets.MintVoucher","components":[
			{"name":"to","type":"address"},
			{"name":"fid","type":"uint256"},
			{"name":"nonce","type":"uint256"},
			{"name":"deadline","type":"uint256"}]},
		{"name":"base64ImageData","type":"string"},
		{"name":"signature","type":"bytes"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"event","name":"GeopletMinted","anonymous":false,"inputs":[
		{"name":"to","type":"address","indexed":true},
		{"name":"fid","type":"uint256","indexed":true}]},
	{"type":"error","name":"FIDAlreadyMinted","inputs":[{"name":"fid","type":"uint256"}]},
	{"type":"error","name":"MaxSupplyReached","inputs":[]},
	{"type":"error","name":"ImageTooLarge","inputs":[{"name":"size","type":"uint256"},{"name":"maxSize","type":"uint256"}]},
	{"type":"error","name":"RecipientMismatch","inputs":[]},
	{"type":"error","name":"EmptyImage","inputs":[]},
	{"type":"error","name":"SignatureExpired","inputs":[]},
	{"type":"error","name":"InvalidSignature","inputs":[]},
	{"type":"error","name":"NonceAlreadyUsed","inputs":[]},
	{"type":"error","name":"ERC721NonexistentToken","inputs":[{"name":"tokenId","type":"uint256"}]}
]`,
}

// Voucher mirrors the MintVoucher struct of the contract. Field names must
// match the ABI component names for packing.
type Voucher struct {
	To       common.Address `json:"to"`
	Fid      *big.Int       `json:"fid"`
	Nonce    *big.Int       `json:"nonce"`
	Deadline *big.Int       `json:"deadline"`
}

func ABI() (*abi.ABI, error) {
	return GeopletMetaData.GetAbi()
}

func PackMint(voucher Voucher, base64Image string, signature []byte) ([]byte, error) {
	parsed, err := ABI()
	if err != nil {
		return nil, err
	}

	return parsed.Pack(MethodMint, voucher, base64Image, signature)
}

func PackOwnerOf(tokenID *big.Int) ([]byte, error) {
	parsed, err := ABI()
	if err != nil {
		return nil, err
	}

	return parsed.Pack(MethodOwnerOf, tokenID)
}

func UnpackOwnerOf(data []byte) (common.Address, error) {
	parsed, err := ABI()
	if err != nil {
		return common.Address{}, err
	}

	out, err := parsed.Unpack(MethodOwnerOf, data)
	if err != nil {
		return common.Address{}, err
	}

	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("unexpected output length %d", len(out))
	}

	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func PackTokenURI(tokenID *big.Int) ([]byte, error) {
	parsed, err := ABI()
	if err != nil {
		return nil, err
	}

	return parsed.Pack(MethodTokenURI, tokenID)
}

func UnpackTokenURI(data []byte) (string, error) {
	parsed, err := ABI()
	if err != nil {
		return "", err
	}

	out, err := parsed.Unpack(MethodTokenURI, data)
	if err != nil {
		return "", err
	}

	if len(out) != 1 {
		return "", fmt.Errorf("unexpected output length %d", len(out))
	}

	return *abi.ConvertType(out[0], new(string)).(*string), nil
}
