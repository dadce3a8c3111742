package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"math/big"
)

// RandomBytes32 returns 32 random bytes, used as EIP-3009 authorization nonce.
func RandomBytes32() ([32]byte, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return b, err
	}

	return b, nil
}

// RandomUint256 returns a uniform random value in [0, 2^256).
func RandomUint256() (*big.Int, error) {
	b, err := RandomBytes32()
	if err != nil {
		return nil, err
	}

	return new(big.Int).SetBytes(b[:]), nil
}

// EqualSecret compares secrets in constant time regarding their content.
func EqualSecret(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
