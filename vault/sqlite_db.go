package vault

import (
	"database/sql"
	"fmt"
	"math/big"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/portalnet-io/bridge-go/common"
)

// SQLiteVaultStorage implements VaultStorage on sqlite. Amounts are stored
// as decimal TEXT because bridged amounts exceed sqlite's signed BIGINT.
type SQLiteVaultStorage struct {
	stakeTable     string
	liquidityTable string
	db             *sql.DB
}

// NewSQLiteVaultStorage opens (or creates) the two ledger tables.
// uniqueID keeps several vaults apart inside one database file.
func NewSQLiteVaultStorage(dbFilePath string, uniqueID string) (*SQLiteVaultStorage, error) {
	db, err := sql.Open("sqlite3", dbFilePath)
	if err != nil {
		return nil, err
	}
	return NewSQLiteVaultStorageWithDB(db, uniqueID)
}

// NewSQLiteVaultStorageWithDB reuses an already opened database handle
// (":memory:" handles in tests, a shared node db in production).
func NewSQLiteVaultStorageWithDB(db *sql.DB, uniqueID string) (*SQLiteVaultStorage, error) {
	s := &SQLiteVaultStorage{
		stakeTable:     "vault_stake_" + uniqueID,
		liquidityTable: "vault_liquidity_" + uniqueID,
		db:             db,
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteVaultStorage) init() error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		depositor CHAR(40) PRIMARY KEY NOT NULL,
		amount TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS %s (
		network INTEGER PRIMARY KEY NOT NULL,
		amount TEXT NOT NULL
	);
	`, s.stakeTable, s.liquidityTable)
	_, err := s.db.Exec(query)
	return err
}

func (s *SQLiteVaultStorage) GetStake(depositor string) (*big.Int, error) {
	query := fmt.Sprintf(`SELECT amount FROM %s WHERE depositor = ?;`, s.stakeTable)
	return s.getAmount(query, depositor)
}

func (s *SQLiteVaultStorage) SetStake(depositor string, amount *big.Int) error {
	query := fmt.Sprintf(`
	INSERT OR REPLACE INTO %s (depositor, amount) VALUES (?, ?);
	`, s.stakeTable)
	_, err := s.db.Exec(query, depositor, common.BigIntToDecStr(amount))
	return err
}

func (s *SQLiteVaultStorage) AllStakes() ([]StakeEntry, error) {
	query := fmt.Sprintf(`SELECT depositor, amount FROM %s WHERE amount != '0';`, s.stakeTable)
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []StakeEntry
	for rows.Next() {
		var depositor, amount string
		if err := rows.Scan(&depositor, &amount); err != nil {
			return nil, err
		}
		entries = append(entries, StakeEntry{Depositor: depositor, Amount: common.DecStrToBigInt(amount)})
	}
	return entries, rows.Err()
}

func (s *SQLiteVaultStorage) GetLiquidity(network uint64) (*big.Int, error) {
	query := fmt.Sprintf(`SELECT amount FROM %s WHERE network = ?;`, s.liquidityTable)
	return s.getAmount(query, network)
}

func (s *SQLiteVaultStorage) SetLiquidity(network uint64, amount *big.Int) error {
	query := fmt.Sprintf(`
	INSERT OR REPLACE INTO %s (network, amount) VALUES (?, ?);
	`, s.liquidityTable)
	_, err := s.db.Exec(query, network, common.BigIntToDecStr(amount))
	return err
}

func (s *SQLiteVaultStorage) AllLiquidity() ([]LiquidityEntry, error) {
	query := fmt.Sprintf(`SELECT network, amount FROM %s WHERE amount != '0';`, s.liquidityTable)
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LiquidityEntry
	for rows.Next() {
		var network uint64
		var amount string
		if err := rows.Scan(&network, &amount); err != nil {
			return nil, err
		}
		entries = append(entries, LiquidityEntry{Network: network, Amount: common.DecStrToBigInt(amount)})
	}
	return entries, rows.Err()
}

func (s *SQLiteVaultStorage) getAmount(query string, key interface{}) (*big.Int, error) {
	var amount string
	if err := s.db.QueryRow(query, key).Scan(&amount); err != nil {
		if err == sql.ErrNoRows {
			return new(big.Int), nil
		}
		return nil, err
	}
	v := common.DecStrToBigInt(amount)
	if v == nil {
		return nil, fmt.Errorf("stored amount is not a decimal: %q", amount)
	}
	return v, nil
}
