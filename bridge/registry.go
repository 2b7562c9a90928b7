package bridge

import (
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"

	"github.com/portalnet-io/bridge-go/agreement"
	"github.com/portalnet-io/bridge-go/oracle"
	"github.com/portalnet-io/bridge-go/rate"
	"github.com/portalnet-io/bridge-go/vault"
)

// Registry holds the bridge's mutable configuration: oracle, vaults,
// asset bindings, channel table, and the transport dispatcher. Every
// update is an admin-authorized state transition; there are no ambient
// globals.
type Registry struct {
	admin ethcommon.Address

	mu         sync.RWMutex
	oracle     *oracle.Adapter
	calculator *rate.Calculator
	dispatcher ethcommon.Address
	exchange   agreement.Exchange
	native     agreement.NativeBinding
	vaults     map[agreement.AssetId]*vault.Vault
	tokens     map[agreement.AssetId]agreement.TokenBinding
	channels   map[string]agreement.NetworkId
	supported  map[agreement.AssetId]bool
}

func NewRegistry(admin ethcommon.Address) *Registry {
	return &Registry{
		admin:     admin,
		vaults:    make(map[agreement.AssetId]*vault.Vault),
		tokens:    make(map[agreement.AssetId]agreement.TokenBinding),
		channels:  make(map[string]agreement.NetworkId),
		supported: make(map[agreement.AssetId]bool),
	}
}

func (r *Registry) authorize(caller ethcommon.Address) error {
	if caller != r.admin {
		return ErrOnlyOwner
	}
	return nil
}

// SetOracle swaps the price source; the rate calculator follows it.
func (r *Registry) SetOracle(caller ethcommon.Address, adapter *oracle.Adapter) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.oracle = adapter
	r.calculator = rate.NewCalculator(adapter)
	logger.Info("bridge oracle updated")
	return nil
}

func (r *Registry) SetDispatcher(caller, dispatcher ethcommon.Address) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatcher = dispatcher
	return nil
}

func (r *Registry) SetExchange(caller ethcommon.Address, ex agreement.Exchange) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exchange = ex
	return nil
}

func (r *Registry) SetNativeBinding(caller ethcommon.Address, binding agreement.NativeBinding) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.native = binding
	return nil
}

func (r *Registry) RegisterVault(caller ethcommon.Address, v *vault.Vault) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vaults[v.Asset()] = v
	logger.WithFields(logger.Fields{"asset": v.Asset().String()}).Info("vault registered")
	return nil
}

func (r *Registry) RegisterToken(caller ethcommon.Address, asset agreement.AssetId, binding agreement.TokenBinding) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[asset] = binding
	return nil
}

// SetChannel binds a transport channel to the remote network it reaches.
func (r *Registry) SetChannel(caller ethcommon.Address, channelId string, remote agreement.NetworkId) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[channelId] = remote
	return nil
}

func (r *Registry) SetSupportedAsset(caller ethcommon.Address, asset agreement.AssetId, supported bool) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if supported {
		r.supported[asset] = true
	} else {
		delete(r.supported, asset)
	}
	return nil
}

func (r *Registry) Calculator() *rate.Calculator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.calculator
}

func (r *Registry) Dispatcher() ethcommon.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dispatcher
}

func (r *Registry) Exchange() agreement.Exchange {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.exchange
}

func (r *Registry) NativeBinding() agreement.NativeBinding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.native
}

func (r *Registry) VaultFor(asset agreement.AssetId) (*vault.Vault, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vaults[asset]
	return v, ok
}

func (r *Registry) TokenFor(asset agreement.AssetId) (agreement.TokenBinding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[asset]
	return t, ok
}

func (r *Registry) ChannelNetwork(channelId string) (agreement.NetworkId, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.channels[channelId]
	return n, ok
}

func (r *Registry) IsSupported(asset agreement.AssetId) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.supported[asset]
}
