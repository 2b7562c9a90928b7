package bridge

var (
	// outbound rows advance sent -> completed | refunded; the status
	// column is the explicit state of the transfer state machine.
	outboundTable = `CREATE TABLE IF NOT EXISTS outbound_transfer (
		channelId VARCHAR(64) NOT NULL,
		sequence BIGINT UNSIGNED NOT NULL,
		payload BLOB NOT NULL,
		commitment CHAR(64) NOT NULL,
		timeoutTimestamp BIGINT UNSIGNED NOT NULL,
		status VARCHAR(10) NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (channelId, sequence),
		CONSTRAINT chk_out_status CHECK (status IN ('sent', 'completed', 'refunded'))
	);`

	// inbound rows are written exactly once per received sequence.
	inboundTable = `CREATE TABLE IF NOT EXISTS inbound_transfer (
		channelId VARCHAR(64) NOT NULL,
		sequence BIGINT UNSIGNED NOT NULL,
		payload BLOB NOT NULL,
		commitment CHAR(64) NOT NULL,
		amountOut TEXT NOT NULL,
		status VARCHAR(10) NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (channelId, sequence),
		CONSTRAINT chk_in_status CHECK (status IN ('accepted', 'rejected'))
	);`
)
