// Reader is a testing facility to read the output of a http reporter.

package reporter

import (
	"fmt"
	"io"
	"net/http"
)

type HttpReader struct {
	serverIP   string // listen ip
	serverPort string // listen port
}

func NewHttpReader(serverIP string, serverPort string) *HttpReader {
	return &HttpReader{
		serverIP:   serverIP,
		serverPort: serverPort,
	}
}

func (hr *HttpReader) get(route string) (string, error) {
	url := "http://" + hr.serverIP + ":" + hr.serverPort + route

	resp, err := http.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	// Read the response body
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	// Convert the body to a string
	return string(body), nil
}

func (hr *HttpReader) GetHello() (string, error) {
	return hr.get(ROUTE_HELLO)
}

func (hr *HttpReader) GetTransferStatus(channelId string, sequence uint64) (string, error) {
	return hr.get(fmt.Sprintf("%s?channel_id=%s&sequence=%d", ROUTE_TRANSFER, channelId, sequence))
}

func (hr *HttpReader) GetTransfers() (string, error) {
	return hr.get(ROUTE_TRANSFERS)
}

func (hr *HttpReader) GetInbound() (string, error) {
	return hr.get(ROUTE_INBOUND)
}

func (hr *HttpReader) GetVault(assetId string) (string, error) {
	return hr.get(ROUTE_VAULT + "?asset=" + assetId)
}
