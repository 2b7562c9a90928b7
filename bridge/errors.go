package bridge

import "errors"

var (
	// precondition errors, rejected synchronously with no state change
	ErrZeroRecipient          = errors.New("recipient is the zero address")
	ErrZeroAmount             = errors.New("amount must be positive")
	ErrMinOutAboveExpected    = errors.New("slippage floor exceeds the quoted output")
	ErrUnsupportedAsset       = errors.New("asset is not in the supported-asset table")
	ErrUnsupportedChannel     = errors.New("channel is not registered")
	ErrChannelNetworkMismatch = errors.New("channel does not reach the requested network")
	ErrTransferTypeMismatch   = errors.New("transfer type does not match the asset pair")
	ErrInsufficientAllowance  = errors.New("sender has not approved enough to the bridge")
	ErrInsufficientBalance    = errors.New("sender balance below amount")
	ErrVaultNotRegistered     = errors.New("no vault registered for asset")
	ErrBindingNotRegistered   = errors.New("no asset binding registered")

	// authorization errors
	ErrOnlyOwner     = errors.New("caller is not the admin")
	ErrOnlyTransport = errors.New("caller is not the registered transport dispatcher")

	// state machine errors
	ErrReentrantCall   = errors.New("reentrant call into the send path")
	ErrUnknownTransfer = errors.New("no outbound transfer for channel and sequence")
	ErrAlreadySettled  = errors.New("transfer already reached a terminal state")
	ErrDuplicatePacket = errors.New("packet at this sequence was already received")
)
