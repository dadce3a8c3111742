package mintflow

type State string

const (
	StateIdle                State = "idle"
	StateInsufficientBalance State = "insufficient_balance"
	StatePaying              State = "paying"
	StateMinting             State = "minting"
	StateSuccess             State = "success"
	StateAlreadyMinted       State = "already_minted"
)

// Terminal reports whether no further transition is expected for this fid.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateAlreadyMinted
}
