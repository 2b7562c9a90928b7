package reporter

import (
	"database/sql"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gin-gonic/gin"

	"github.com/portalnet-io/bridge-go/agreement"
	"github.com/portalnet-io/bridge-go/bridge"
	"github.com/portalnet-io/bridge-go/common"
)

func newTestReporter(t *testing.T) (*HttpReporter, *bridge.StateDB) {
	gin.SetMode(gin.TestMode)

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	statedb, err := bridge.NewStateDB(db)
	require.NoError(t, err)

	return NewHttpReporter("127.0.0.1", "0", statedb, nil), statedb
}

func doGet(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	router.ServeHTTP(w, req)
	return w
}

func TestHelloRoute(t *testing.T) {
	h, _ := newTestReporter(t)
	w := doGet(t, h.SetupRouter(), ROUTE_HELLO)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "world")
}

func TestTransferRoute(t *testing.T) {
	h, statedb := newTestReporter(t)
	router := h.SetupRouter()

	sender := common.RandEthAddress()
	tr := &bridge.OutboundTransfer{
		ChannelId: "channel-0",
		Sequence:  1,
		Intent: &agreement.BridgeIntent{
			TransferType:  agreement.NativeToNative,
			SourceNetwork: 1,
			TargetNetwork: 2,
			Sender:        sender,
			Recipient:     common.RandEthAddress(),
			Amount:        big.NewInt(1000),
			ExpectedOut:   big.NewInt(1000),
			MinOut:        big.NewInt(990),
		},
		Status: bridge.OutboundStatusSent,
	}
	require.NoError(t, statedb.InsertOutbound(tr))

	w := doGet(t, router, ROUTE_TRANSFER+"?channel_id=channel-0&sequence=1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), sender.Hex())
	assert.Contains(t, w.Body.String(), `"status":"sent"`)

	w = doGet(t, router, ROUTE_TRANSFER+"?channel_id=channel-0&sequence=99")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doGet(t, router, ROUTE_TRANSFER+"?channel_id=channel-0")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransfersAndInboundRoutes(t *testing.T) {
	h, _ := newTestReporter(t)
	router := h.SetupRouter()

	w := doGet(t, router, ROUTE_TRANSFERS)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)

	w = doGet(t, router, ROUTE_INBOUND)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVaultRouteUnknownAsset(t *testing.T) {
	h, _ := newTestReporter(t)
	w := doGet(t, h.SetupRouter(), ROUTE_VAULT+"?asset=nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
