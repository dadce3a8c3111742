package eth

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/geoplet/backend/contract/geoplet"
	"github.com/stretchr/testify/require"
)

type dataError struct {
	data any
}

func (e dataError) Error() string  { return "execution reverted" }
func (e dataError) ErrorData() any { return e.data }

func TestDecodeRevert_CustomError(t *testing.T) {
	parsed, err := geoplet.ABI()
	require.NoError(t, err)

	e := parsed.Errors[geoplet.ErrFIDAlreadyMinted]
	args, err := e.Inputs.Pack(big.NewInt(42))
	require.NoError(t, err)
	data := append(e.ID[:4:4], args...)

	revert, err := DecodeRevert(parsed, data)
	require.NoError(t, err)
	require.Equal(t, geoplet.ErrFIDAlreadyMinted, revert.Name)
	require.Equal(t, big.NewInt(42), revert.Args[0])

	expired := parsed.Errors[geoplet.ErrSignatureExpired]
	revert, err = DecodeRevert(parsed, expired.ID[:4])
	require.NoError(t, err)
	require.Equal(t, geoplet.ErrSignatureExpired, revert.Name)
}

func TestDecodeRevert_ErrorString(t *testing.T) {
	parsed, err := geoplet.ABI()
	require.NoError(t, err)

	// Error(string) with "Already minted".
	data := hexutil.MustDecode("0x08c379a0" +
		"0000000000000000000000000000000000000000000000000000000000000020" +
		"000000000000000000000000000000000000000000000000000000000000000e" +
		"416c7265616479206d696e746564000000000000000000000000000000000000")

	revert, err := DecodeRevert(parsed, data)
	require.NoError(t, err)
	require.Equal(t, "Error", revert.Name)
	require.Equal(t, "Already minted", revert.Message)
}

func TestDecodeRevert_Unknown(t *testing.T) {
	parsed, err := geoplet.ABI()
	require.NoError(t, err)

	_, err = DecodeRevert(parsed, []byte{0xde, 0xad, 0xbe, 0xef})
	require.ErrorIs(t, err, ErrUnknownRevert)

	_, err = DecodeRevert(parsed, []byte{0x01})
	require.ErrorIs(t, err, ErrUnknownRevert)
}

func TestRevertData(t *testing.T) {
	data, ok := RevertData(fmt.Errorf("estimate: %w", dataError{data: "0xdeadbeef"}))
	require.True(t, ok)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, data)

	_, ok = RevertData(errors.New("plain"))
	require.False(t, ok)

	_, ok = RevertData(dataError{data: "not-hex"})
	require.False(t, ok)
}
