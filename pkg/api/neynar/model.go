package neynar

import "strings"

type VerifiedAddresses struct {
	EthAddresses []string `mapstructure:"eth_addresses"`
}

type User struct {
	Fid               int64             `mapstructure:"fid"`
	Username          string            `mapstructure:"username"`
	DisplayName       string            `mapstructure:"display_name"`
	CustodyAddress    string            `mapstructure:"custody_address"`
	VerifiedAddresses VerifiedAddresses `mapstructure:"verified_addresses"`
}

// OwnsAddress reports whether address is the custody address or one of the
// verified addresses of the user.
func (u User) OwnsAddress(address string) bool {
	if strings.EqualFold(u.CustodyAddress, address) {
		return true
	}

	for _, a := range u.VerifiedAddresses.EthAddresses {
		if strings.EqualFold(a, address) {
			return true
		}
	}

	return false
}

type Cast struct {
	Hash string `mapstructure:"hash"`
	Text string `mapstructure:"text"`
}
