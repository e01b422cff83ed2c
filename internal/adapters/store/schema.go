package store

import (
	"strings"
)

// schema uses placeholders for the column types that differ between dialects
var schema = []string{
	`CREATE TABLE IF NOT EXISTS mailbox_accounts (
		id {{pk}},
		owner_id VARCHAR(255) NOT NULL UNIQUE,
		address VARCHAR(320) NOT NULL,
		is_active BOOLEAN NOT NULL,
		connected_at {{ts}} NOT NULL,
		last_sync {{ts}} NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id {{pk}},
		account_id BIGINT NOT NULL REFERENCES mailbox_accounts(id) ON DELETE CASCADE,
		external_id VARCHAR(255) NOT NULL,
		subject TEXT NOT NULL,
		sender TEXT NOT NULL,
		received_at {{ts}} NOT NULL,
		body_text {{text}} NOT NULL,
		snippet TEXT NOT NULL,
		scanned_at {{ts}} NOT NULL,
		is_phishing BOOLEAN NOT NULL,
		is_ai_generated BOOLEAN NOT NULL,
		risk_level VARCHAR(16) NOT NULL,
		UNIQUE (account_id, external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS url_findings (
		id {{pk}},
		message_id BIGINT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		is_suspicious BOOLEAN NOT NULL,
		risk_score INTEGER NOT NULL,
		risk_level VARCHAR(16) NOT NULL,
		indicators TEXT NOT NULL,
		details TEXT NOT NULL,
		analyzed_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ai_findings (
		id {{pk}},
		message_id BIGINT NOT NULL UNIQUE REFERENCES messages(id) ON DELETE CASCADE,
		is_ai_generated BOOLEAN NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		confidence_level VARCHAR(64) NOT NULL,
		method VARCHAR(64) NOT NULL,
		signals TEXT NOT NULL,
		indicators TEXT NOT NULL,
		analyzed_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS scan_runs (
		id {{pk}},
		account_id BIGINT NOT NULL REFERENCES mailbox_accounts(id) ON DELETE CASCADE,
		started_at {{ts}} NOT NULL,
		completed_at {{ts}} NULL,
		status VARCHAR(16) NOT NULL,
		total_emails INTEGER NOT NULL,
		safe_emails INTEGER NOT NULL,
		phishing_emails INTEGER NOT NULL,
		ai_phishing_emails INTEGER NOT NULL,
		error_message TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS threat_statistics (
		id {{pk}},
		account_id BIGINT NOT NULL REFERENCES mailbox_accounts(id) ON DELETE CASCADE,
		stat_date VARCHAR(10) NOT NULL,
		total_scanned INTEGER NOT NULL,
		safe_count INTEGER NOT NULL,
		phishing_count INTEGER NOT NULL,
		ai_phishing_count INTEGER NOT NULL,
		updated_at {{ts}} NOT NULL,
		UNIQUE (account_id, stat_date)
	)`,
	`CREATE INDEX idx_url_findings_message ON url_findings(message_id)`,
	`CREATE INDEX idx_scan_runs_account ON scan_runs(account_id, started_at)`,
}

var columnTypes = map[Dialect]*strings.Replacer{
	DialectSQLite: strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}", "DATETIME",
		"{{text}}", "TEXT",
	),
	DialectMySQL: strings.NewReplacer(
		"{{pk}}", "BIGINT AUTO_INCREMENT PRIMARY KEY",
		"{{ts}}", "DATETIME(6)",
		"{{text}}", "MEDIUMTEXT",
	),
	DialectPostgres: strings.NewReplacer(
		"{{pk}}", "BIGSERIAL PRIMARY KEY",
		"{{ts}}", "TIMESTAMPTZ",
		"{{text}}", "TEXT",
	),
}

// statements returns the schema for a dialect. Index creation is made
// idempotent where the dialect supports it.
func statements(d Dialect) []string {
	r := columnTypes[d]
	out := make([]string, 0, len(schema))
	for _, stmt := range schema {
		stmt = r.Replace(stmt)
		if d != DialectMySQL {
			stmt = strings.Replace(stmt, "CREATE INDEX ", "CREATE INDEX IF NOT EXISTS ", 1)
		}
		out = append(out, stmt)
	}
	return out
}
