package enum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnum_String(t *testing.T) {
	type Status string

	settled := New(Status("settled"))
	minted := New(Status("minted"), "MINTED")

	v, err := ToEnum[Status]("settled")
	require.NoError(t, err)
	require.Equal(t, settled, v)

	v, err = ToEnum[Status]("MINTED")
	require.NoError(t, err)
	require.Equal(t, minted, v)

	_, err = ToEnum[Status]("minted")
	require.Error(t, err)

	require.Equal(t, "MINTED", ToString(minted))
	require.Empty(t, ToString(Status("failed")))
}

func TestEnum_Int(t *testing.T) {
	type Tier int

	gold := New(Tier(2), "gold")

	v, err := ToEnum[Tier]("gold")
	require.NoError(t, err)
	require.Equal(t, gold, v)
	require.Equal(t, "gold", ToString(gold))
}

func TestEnum_UnknownType(t *testing.T) {
	type Unregistered string

	_, err := ToEnum[Unregistered]("x")
	require.Error(t, err)
	require.Empty(t, ToString(Unregistered("x")))
}
