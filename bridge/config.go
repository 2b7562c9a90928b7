package bridge

import (
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/portalnet-io/bridge-go/agreement"
)

type Config struct {
	// LocalNetwork is the network this bridge instance settles on.
	LocalNetwork agreement.NetworkId

	// BridgeAddress is the bridge's own account; vaults register it as
	// their controller and token senders approve it for escrow.
	BridgeAddress ethcommon.Address

	// Admin authorizes registry updates.
	Admin ethcommon.Address

	// PlatformSlippageBps bounds how far above the quote a settlement may
	// land before it is rejected as price manipulation or staleness.
	PlatformSlippageBps uint32

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}
