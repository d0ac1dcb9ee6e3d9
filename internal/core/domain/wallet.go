package domain

// Wallet is the persisted state of a wallet the layer2 runtime cares about:
// which extension, if any, is attached to it.
type Wallet struct {
	Layer2    string
	CreatedAt int64
	UpdatedAt int64
}
