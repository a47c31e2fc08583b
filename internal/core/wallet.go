package core

// NativeWallet is the native library's handle for one wallet.
type NativeWallet interface {
	Manager() WalletManager
	Currency() Currency
	Balance() Amount
	// Target is the default receive address.
	Target() Address
	TargetForScheme(scheme AddressScheme) Address
	// Transfers returns every transfer the wallet tracks, in any state.
	Transfers() []Transfer
	// EstimateFee delivers its result asynchronously. completion is called
	// exactly once.
	EstimateFee(target Address, amount Amount, fee NetworkFee, completion func(*FeeBasis, error))
	// CreateTransfer builds, but does not sign or broadcast, a transfer.
	CreateTransfer(target Address, amount Amount, basis FeeBasis) (Transfer, error)
	// CreateSweeper prepares moving the funds of a private key into the
	// wallet. completion is called exactly once.
	CreateSweeper(key string, completion func(Sweeper, error))
}

// Sweeper moves all funds of an imported private key into a wallet.
type Sweeper interface {
	// Address is the key's address holding the funds.
	Address() Address
	Balance() Amount
	EstimateFee(fee NetworkFee, completion func(*FeeBasis, error))
	// CreateTransfer builds a recovered transfer of the balance less the fee.
	CreateTransfer(basis FeeBasis) (Transfer, error)
}

// WalletManager owns the wallets of one network.
type WalletManager interface {
	Network() Network
	// Submit signs the transfer with paperKey and broadcasts it. The outcome
	// is reported through the Listener.
	Submit(t Transfer, paperKey string)
}

// PaymentProtocolRequest is a parsed payment request (e.g. a BIP21 URI).
type PaymentProtocolRequest interface {
	// PrimaryTarget returns nil when the request carries no usable target.
	PrimaryTarget() Address
	CreateTransfer(basis FeeBasis) (Transfer, error)
}
