package bridge

import (
	"database/sql"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/portalnet-io/bridge-go/codec"
	"github.com/portalnet-io/bridge-go/common"
	"github.com/portalnet-io/bridge-go/database"
)

// StateDB persists the explicit transfer state machine. Rows are keyed by
// (channel, sequence); the intent travels as its wire payload so the
// stored form is byte-identical to what crossed the transport.
type StateDB struct {
	stmtCache *database.StmtCache
}

func NewStateDB(db *sql.DB) (*StateDB, error) {
	if _, err := db.Exec(outboundTable + inboundTable); err != nil {
		return nil, err
	}
	return &StateDB{stmtCache: database.NewStmtCache(db)}, nil
}

func (st *StateDB) Close() {
	st.stmtCache.Clear()
}

func (st *StateDB) InsertOutbound(tr *OutboundTransfer) error {
	payload, err := codec.Encode(tr.Intent)
	if err != nil {
		return err
	}

	query := `INSERT INTO outbound_transfer
		(channelId, sequence, payload, commitment, timeoutTimestamp, status, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	_, err = stmt.Exec(
		tr.ChannelId,
		tr.Sequence,
		payload,
		tr.Commitment.String()[2:],
		tr.TimeoutTimestamp,
		string(tr.Status),
		tr.Detail,
	)
	return err
}

// SettleOutbound moves a transfer out of 'sent'. It is the exactly-once
// gate: a second settlement attempt finds no 'sent' row and fails with
// ErrAlreadySettled.
func (st *StateDB) SettleOutbound(channelId string, sequence uint64, status OutboundStatus, detail string) error {
	query := `UPDATE outbound_transfer SET status = ?, detail = ?
		WHERE channelId = ? AND sequence = ? AND status = 'sent'`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	res, err := stmt.Exec(string(status), detail, channelId, sequence)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		ok, _, err := st.HasOutbound(channelId, sequence)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUnknownTransfer
		}
		return ErrAlreadySettled
	}
	return nil
}

func (st *StateDB) GetOutbound(channelId string, sequence uint64) (*OutboundTransfer, bool, error) {
	query := `SELECT payload, commitment, timeoutTimestamp, status, detail
		FROM outbound_transfer WHERE channelId = ? AND sequence = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, false, err
	}

	var (
		payload    []byte
		commitment string
		timeout    uint64
		status     string
		detail     string
	)
	if err := stmt.QueryRow(channelId, sequence).Scan(&payload, &commitment, &timeout, &status, &detail); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}

	intent, err := codec.Decode(payload)
	if err != nil {
		return nil, false, err
	}

	return &OutboundTransfer{
		ChannelId:        channelId,
		Sequence:         sequence,
		Intent:           intent,
		Commitment:       ethcommon.HexToHash(commitment),
		TimeoutTimestamp: timeout,
		Status:           OutboundStatus(status),
		Detail:           detail,
	}, true, nil
}

func (st *StateDB) HasOutbound(channelId string, sequence uint64) (bool, OutboundStatus, error) {
	query := `SELECT status FROM outbound_transfer WHERE channelId = ? AND sequence = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return false, "", err
	}

	var status string
	if err := stmt.QueryRow(channelId, sequence).Scan(&status); err != nil {
		if err == sql.ErrNoRows {
			return false, "", nil
		}
		return false, "", err
	}
	return true, OutboundStatus(status), nil
}

func (st *StateDB) ListOutbound() ([]*OutboundTransfer, error) {
	query := `SELECT channelId, sequence, payload, commitment, timeoutTimestamp, status, detail
		FROM outbound_transfer ORDER BY channelId, sequence`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []*OutboundTransfer
	for rows.Next() {
		var (
			channelId  string
			sequence   uint64
			payload    []byte
			commitment string
			timeout    uint64
			status     string
			detail     string
		)
		if err := rows.Scan(&channelId, &sequence, &payload, &commitment, &timeout, &status, &detail); err != nil {
			return nil, err
		}
		intent, err := codec.Decode(payload)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, &OutboundTransfer{
			ChannelId:        channelId,
			Sequence:         sequence,
			Intent:           intent,
			Commitment:       ethcommon.HexToHash(commitment),
			TimeoutTimestamp: timeout,
			Status:           OutboundStatus(status),
			Detail:           detail,
		})
	}
	return transfers, rows.Err()
}

func (st *StateDB) InsertInbound(tr *InboundTransfer) error {
	query := `INSERT INTO inbound_transfer
		(channelId, sequence, payload, commitment, amountOut, status, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	_, err = stmt.Exec(
		tr.ChannelId,
		tr.Sequence,
		tr.Payload,
		tr.Commitment.String()[2:],
		common.BigIntToDecStr(tr.AmountOut),
		string(tr.Status),
		tr.Detail,
	)
	return err
}

func (st *StateDB) HasInbound(channelId string, sequence uint64) (bool, InboundStatus, error) {
	query := `SELECT status FROM inbound_transfer WHERE channelId = ? AND sequence = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return false, "", err
	}

	var status string
	if err := stmt.QueryRow(channelId, sequence).Scan(&status); err != nil {
		if err == sql.ErrNoRows {
			return false, "", nil
		}
		return false, "", err
	}
	return true, InboundStatus(status), nil
}

func (st *StateDB) ListInbound() ([]*InboundTransfer, error) {
	query := `SELECT channelId, sequence, payload, commitment, amountOut, status, detail
		FROM inbound_transfer ORDER BY channelId, sequence`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []*InboundTransfer
	for rows.Next() {
		var (
			channelId  string
			sequence   uint64
			payload    []byte
			commitment string
			amountOut  string
			status     string
			detail     string
		)
		if err := rows.Scan(&channelId, &sequence, &payload, &commitment, &amountOut, &status, &detail); err != nil {
			return nil, err
		}
		// malformed payloads were rejected but are still listed
		intent, _ := codec.Decode(payload)
		transfers = append(transfers, &InboundTransfer{
			ChannelId:  channelId,
			Sequence:   sequence,
			Payload:    payload,
			Intent:     intent,
			Commitment: ethcommon.HexToHash(commitment),
			AmountOut:  decOrZero(amountOut),
			Status:     InboundStatus(status),
			Detail:     detail,
		})
	}
	return transfers, rows.Err()
}

func decOrZero(s string) *big.Int {
	if v := common.DecStrToBigInt(s); v != nil {
		return v
	}
	return new(big.Int)
}
