// Node = one network's deployment: ledger bindings, vault, oracle,
// registry, bridge core, statedb and a http reporter. The demo server
// runs two nodes in one process, joined by the in-process relay.

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/sirupsen/logrus"

	"github.com/portalnet-io/bridge-go/agreement"
	"github.com/portalnet-io/bridge-go/assets"
	"github.com/portalnet-io/bridge-go/bridge"
	"github.com/portalnet-io/bridge-go/common"
	"github.com/portalnet-io/bridge-go/logconfig"
	"github.com/portalnet-io/bridge-go/oracle"
	"github.com/portalnet-io/bridge-go/reporter"
	"github.com/portalnet-io/bridge-go/transport"
	"github.com/portalnet-io/bridge-go/vault"
)

// Default params for the demo server.
// More often we don't recommend users to tweak those.
// So we list them here.
const (
	// relay pump config
	frequencyToDeliverPackets = 1 * time.Second
	frequencyToExpireTimeouts = 5 * time.Second

	// demo oracle quote, canonical 1e18 fixed point
	demoNativeQuote = 2000
)

// Keep the configuration's fields as "text" as possible.
// Its easier to load it from env vars or a config file.
type NodeConfig struct {
	Network     uint64 // network id this node settles on
	DbFilePath  string // db file path, empty for in-memory
	AdminAddr   string // hex address authorizing registry updates, random if empty
	SlippageBps uint32 // platform ceiling above the quote

	// Http side
	HttpIp   string // eg. 0.0.0.0
	HttpPort string // eg. 8080
}

// BridgeNode holds the objects that consist of one side of the bridge.
type BridgeNode struct {
	Cfg *NodeConfig

	MyDb       *sql.DB
	MyStateDb  *bridge.StateDB
	MyRegistry *bridge.Registry
	MyBridge   *bridge.Bridge

	MyNative      *assets.SimulatedNative
	MyNativeVault *vault.Vault
	MyPrices      *oracle.StaticSource
	MyReporter    *reporter.HttpReporter

	Admin      ethcommon.Address
	Dispatcher ethcommon.Address
}

// NewBridgeNode assembles one node. The ledger is simulated; wiring a
// real chain binding replaces MyNative and nothing else.
func NewBridgeNode(cfg *NodeConfig) (*BridgeNode, error) {
	dbPath := cfg.DbFilePath
	if dbPath == "" {
		dbPath = ":memory:"
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open db %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)

	statedb, err := bridge.NewStateDB(db)
	if err != nil {
		return nil, err
	}
	store, err := vault.NewSQLiteVaultStorageWithDB(db, "native")
	if err != nil {
		return nil, err
	}

	admin := common.RandEthAddress()
	if cfg.AdminAddr != "" {
		admin = ethcommon.HexToAddress(cfg.AdminAddr)
	}
	dispatcher := common.RandEthAddress()
	bridgeAddr := common.RandEthAddress()

	network := agreement.NetworkId(cfg.Network)
	nativeAsset := agreement.NativeAsset(network)

	native := assets.NewSimulatedNative()
	nativeVault := vault.NewNativeVault(nativeAsset, common.RandEthAddress(), bridgeAddr, native, store)

	prices := oracle.NewStaticSource()
	registry := bridge.NewRegistry(admin)
	if err := registry.SetOracle(admin, oracle.NewAdapter(prices, oracle.Config{})); err != nil {
		return nil, err
	}
	if err := registry.SetDispatcher(admin, dispatcher); err != nil {
		return nil, err
	}
	if err := registry.SetNativeBinding(admin, native); err != nil {
		return nil, err
	}
	if err := registry.RegisterVault(admin, nativeVault); err != nil {
		return nil, err
	}
	if err := registry.SetSupportedAsset(admin, nativeAsset, true); err != nil {
		return nil, err
	}

	bcfg := &bridge.Config{
		LocalNetwork:        network,
		BridgeAddress:       bridgeAddr,
		Admin:               admin,
		PlatformSlippageBps: cfg.SlippageBps,
	}
	core := bridge.New(bcfg, registry, statedb, nil)

	node := &BridgeNode{
		Cfg:           cfg,
		MyDb:          db,
		MyStateDb:     statedb,
		MyRegistry:    registry,
		MyBridge:      core,
		MyNative:      native,
		MyNativeVault: nativeVault,
		MyPrices:      prices,
		Admin:         admin,
		Dispatcher:    dispatcher,
	}
	node.MyReporter = reporter.NewHttpReporter(cfg.HttpIp, cfg.HttpPort, statedb, []*vault.Vault{nativeVault})

	logconfig.NetworkLogger(network).WithFields(logger.Fields{
		"bridge": bridgeAddr.Hex(),
		"db":     dbPath,
	}).Info("bridge node assembled")

	return node, nil
}

// DemoServerConfig describes the two linked nodes of the demo server.
type DemoServerConfig struct {
	NodeA *NodeConfig
	NodeB *NodeConfig

	ChannelId     string
	SeedLiquidity int64 // native units each vault is seeded with
}

// StartDemoServerAndWait wires both nodes over a relay, seeds prices
// and liquidity, starts the reporters and pumps the relay until the
// process receives an interrupt.
func StartDemoServerAndWait(dc *DemoServerConfig) error {
	a, err := NewBridgeNode(dc.NodeA)
	if err != nil {
		return err
	}
	defer a.MyDb.Close()
	b, err := NewBridgeNode(dc.NodeB)
	if err != nil {
		return err
	}
	defer b.MyDb.Close()

	netA := agreement.NetworkId(dc.NodeA.Network)
	netB := agreement.NetworkId(dc.NodeB.Network)

	// each side must know the channel, the remote native asset and a
	// quote for both networks
	if err := a.MyRegistry.SetChannel(a.Admin, dc.ChannelId, netB); err != nil {
		return err
	}
	if err := b.MyRegistry.SetChannel(b.Admin, dc.ChannelId, netA); err != nil {
		return err
	}
	if err := a.MyRegistry.SetSupportedAsset(a.Admin, agreement.NativeAsset(netB), true); err != nil {
		return err
	}
	if err := b.MyRegistry.SetSupportedAsset(b.Admin, agreement.NativeAsset(netA), true); err != nil {
		return err
	}

	now := time.Now().Unix()
	quote := new(big.Int).Mul(big.NewInt(demoNativeQuote), big.NewInt(1e18))
	for _, n := range []*BridgeNode{a, b} {
		n.MyPrices.SetNativePrice(netA, quote, oracle.CanonicalDecimals, now)
		n.MyPrices.SetNativePrice(netB, quote, oracle.CanonicalDecimals, now)
	}

	if dc.SeedLiquidity > 0 {
		seed := new(big.Int).Mul(big.NewInt(dc.SeedLiquidity), big.NewInt(1e18))
		for _, pair := range []struct {
			node   *BridgeNode
			remote agreement.NetworkId
		}{{a, netB}, {b, netA}} {
			lp := common.RandEthAddress()
			pair.node.MyNative.Mint(lp, seed)
			if err := pair.node.MyNativeVault.Deposit(lp, pair.remote, seed); err != nil {
				return err
			}
		}
	}

	relay := transport.NewRelay(nil)
	epA, epB, err := relay.Link(dc.ChannelId, a.MyBridge, a.Dispatcher, b.MyBridge, b.Dispatcher)
	if err != nil {
		return err
	}
	a.MyBridge.SetTransport(epA)
	b.MyBridge.SetTransport(epB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		pumpRelay(ctx, relay)
	}()

	go a.MyReporter.Run()
	go b.MyReporter.Run()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down bridge demo server")

	cancel()
	wg.Wait()
	return nil
}

// pumpRelay drives packet delivery and timeout expiry until ctx ends.
func pumpRelay(ctx context.Context, relay *transport.Relay) {
	deliver := time.NewTicker(frequencyToDeliverPackets)
	defer deliver.Stop()
	expire := time.NewTicker(frequencyToExpireTimeouts)
	defer expire.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deliver.C:
			if _, err := relay.DeliverAll(); err != nil {
				logger.Errorf("relay delivery failed: %v", err)
			}
		case <-expire.C:
			if _, err := relay.ExpireTimeouts(); err != nil {
				logger.Errorf("timeout expiry failed: %v", err)
			}
		}
	}
}
