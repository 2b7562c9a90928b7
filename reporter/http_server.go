// This is a http type of reporter.
// It fetches data from the bridge statedb and vaults
// and publishes on the http routes.

package reporter

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/portalnet-io/bridge-go/agreement"
	"github.com/portalnet-io/bridge-go/bridge"
	"github.com/portalnet-io/bridge-go/vault"
)

const (
	ROUTE_HELLO     = "/hello"
	ROUTE_TRANSFER  = "/transfer"
	ROUTE_TRANSFERS = "/transfers"
	ROUTE_INBOUND   = "/inbound"
	ROUTE_VAULT     = "/vault"
)

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	// upstream data sources
	statedb *bridge.StateDB
	vaults  map[string]*vault.Vault // keyed by asset id string
}

func NewHttpReporter(serverIP string, serverPort string, statedb *bridge.StateDB, vaults []*vault.Vault) *HttpReporter {
	byAsset := make(map[string]*vault.Vault, len(vaults))
	for _, v := range vaults {
		byAsset[v.Asset().String()] = v
	}
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		statedb:    statedb,
		vaults:     byAsset,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.Default()

	// Define routes & handlers
	router.GET(ROUTE_HELLO, Hello)
	router.GET(ROUTE_TRANSFER, h.Transfer)
	router.GET(ROUTE_TRANSFERS, h.Transfers)
	router.GET(ROUTE_INBOUND, h.Inbound)
	router.GET(ROUTE_VAULT, h.Vault)

	return router
}

// Hook up router & ip:port
func (h *HttpReporter) Run() {
	router := h.SetupRouter()
	address := h.serverIP + ":" + h.serverPort
	if err := router.Run(address); err != nil {
		panic(err)
	}
}

// Example route.
func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "world",
	})
}

// Fetch a single outbound transfer by (channel_id, sequence).
func (h *HttpReporter) Transfer(c *gin.Context) {
	channelId := c.Query("channel_id")
	seqStr := c.Query("sequence")

	if channelId == "" || seqStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Both channel_id and sequence must be provided"})
		return
	}
	sequence, err := strconv.ParseUint(seqStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sequence must be an unsigned integer"})
		return
	}

	tr, ok, err := h.statedb.GetOutbound(channelId, sequence)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No transfer found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tr.ToJSON()})
}

// List all outbound transfers recorded on this side.
func (h *HttpReporter) Transfers(c *gin.Context) {
	trs, err := h.statedb.ListOutbound()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]bridge.JSONTransfer, 0, len(trs))
	for _, tr := range trs {
		out = append(out, tr.ToJSON())
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// List all inbound settlements, accepted and rejected.
func (h *HttpReporter) Inbound(c *gin.Context) {
	trs, err := h.statedb.ListInbound()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]bridge.JSONInbound, 0, len(trs))
	for _, tr := range trs {
		out = append(out, tr.ToJSON())
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// Report a vault's holdings and its liquidity toward one remote network.
func (h *HttpReporter) Vault(c *gin.Context) {
	assetId := c.Query("asset")
	if assetId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "asset must be provided"})
		return
	}
	v, ok := h.vaults[assetId]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No vault for asset"})
		return
	}

	resp := gin.H{
		"asset":    v.Asset().String(),
		"address":  v.Address().Hex(),
		"holdings": v.Holdings().String(),
	}
	if netStr := c.Query("network"); netStr != "" {
		network, err := strconv.ParseUint(netStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "network must be an unsigned integer"})
			return
		}
		liq, err := v.Liquidity(agreement.NetworkId(network))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		resp["liquidity"] = liq.String()
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
