package eth

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var ErrUnknownRevert = errors.New("unknown revert selector")

// Revert is a decoded revert payload. Name is the custom error name, or
// "Error" for a plain require message kept in Message.
type Revert struct {
	Name    string
	Args    []any
	Message string
}

func (r Revert) String() string {
	if r.Message != "" {
		return fmt.Sprintf("%s(%q)", r.Name, r.Message)
	}

	return fmt.Sprintf("%s%v", r.Name, r.Args)
}

// RevertData extracts the revert payload a node attaches to a JSON-RPC error.
func RevertData(err error) ([]byte, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return nil, false
	}

	switch data := dataErr.ErrorData().(type) {
	case string:
		b, err := hexutil.Decode(data)
		if err != nil {
			return nil, false
		}
		return b, true
	case []byte:
		return data, true
	}

	return nil, false
}

func DecodeRevert(parsed *abi.ABI, data []byte) (Revert, error) {
	if len(data) < 4 {
		return Revert{}, fmt.Errorf("%w: short data", ErrUnknownRevert)
	}

	for name, e := range parsed.Errors {
		if !bytes.Equal(e.ID[:4], data[:4]) {
			continue
		}

		args, err := e.Inputs.Unpack(data[4:])
		if err != nil {
			return Revert{}, err
		}

		return Revert{Name: name, Args: args}, nil
	}

	if reason, err := abi.UnpackRevert(data); err == nil {
		return Revert{Name: "Error", Message: reason}, nil
	}

	return Revert{}, fmt.Errorf("%w: %x", ErrUnknownRevert, data[:4])
}
