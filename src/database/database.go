package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/labelfolio/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// InitDB opens the SQLite database and ensures the schema. Monetary amounts
// and share fractions are stored as TEXT so decimal values round-trip
// exactly; dates are stored as ISO strings.
func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	logger.L.Info("Checking database migrations", "databasePath", databasePath)
	migrateContractPartiesTable() // per-sale-type share columns added after launch
	migrateLedgerTable()          // statement link added with the mark-as-paid workflow

	if err := EnsureSchema(DB); err != nil {
		logger.L.Error("failed to create tables", "error", err)
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	logger.L.Info("Database tables ensured/created.")
}

// EnsureSchema creates the royalty tables and indexes if they are missing.
// Callers that manage their own connection (tests run against in-memory
// databases) apply it directly.
func EnsureSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		artist_id TEXT NOT NULL,
		scope TEXT NOT NULL,
		scope_id TEXT,
		start_date TEXT NOT NULL,
		end_date TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS contract_parties (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		party_type TEXT NOT NULL,
		artist_id TEXT,
		label_name TEXT,
		share_percentage TEXT NOT NULL,
		share_physical TEXT,
		share_digital TEXT,
		FOREIGN KEY(contract_id) REFERENCES contracts(id)
	);

	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		artist_id TEXT NOT NULL,
		entry_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'EUR',
		scope TEXT NOT NULL DEFAULT 'catalog',
		scope_id TEXT,
		effective_date TEXT NOT NULL,
		category TEXT,
		description TEXT,
		reference TEXT,
		statement_id TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS catalog_revenue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		artist_id TEXT NOT NULL,
		release_upc TEXT,
		release_title TEXT,
		included_in_upc TEXT,
		track_isrc TEXT,
		track_title TEXT,
		source_platform TEXT NOT NULL,
		sale_type TEXT NOT NULL,
		gross_amount TEXT NOT NULL,
		unit_count INTEGER NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'EUR',
		sale_date TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS statements (
		id TEXT PRIMARY KEY,
		artist_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		period_label TEXT,
		currency TEXT NOT NULL DEFAULT 'EUR',
		status TEXT NOT NULL DEFAULT 'draft',
		gross_amount TEXT NOT NULL DEFAULT '0',
		artist_royalty TEXT NOT NULL DEFAULT '0',
		label_royalty TEXT NOT NULL DEFAULT '0',
		advance_balance_before TEXT NOT NULL DEFAULT '0',
		recouped_amount TEXT NOT NULL DEFAULT '0',
		advance_balance_after TEXT NOT NULL DEFAULT '0',
		net_payable TEXT NOT NULL DEFAULT '0',
		release_count INTEGER NOT NULL DEFAULT 0,
		unit_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		finalized_at TIMESTAMP,
		paid_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_catalog_revenue_artist_date
		ON catalog_revenue(artist_id, sale_date);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_artist
		ON ledger_entries(artist_id);
	`
	_, err := db.Exec(schema)
	return err
}

// migrateContractPartiesTable adds the per-sale-type share override columns
// to databases created before physical/digital splits existed.
func migrateContractPartiesTable() {
	columnExists, ok := tableColumns("contract_parties")
	if !ok {
		return
	}

	if _, exists := columnExists["share_physical"]; !exists {
		_, err := DB.Exec("ALTER TABLE contract_parties ADD COLUMN share_physical TEXT")
		if err != nil {
			logger.L.Error("Error adding 'share_physical' column to 'contract_parties' table", "error", err)
		} else {
			logger.L.Info("Added 'share_physical' column to 'contract_parties' table")
		}
	}
	if _, exists := columnExists["share_digital"]; !exists {
		_, err := DB.Exec("ALTER TABLE contract_parties ADD COLUMN share_digital TEXT")
		if err != nil {
			logger.L.Error("Error adding 'share_digital' column to 'contract_parties' table", "error", err)
		} else {
			logger.L.Info("Added 'share_digital' column to 'contract_parties' table")
		}
	}
}

// migrateLedgerTable adds the columns that arrived with the statement
// mark-as-paid workflow.
func migrateLedgerTable() {
	columnExists, ok := tableColumns("ledger_entries")
	if !ok {
		return
	}

	if _, exists := columnExists["statement_id"]; !exists {
		_, err := DB.Exec("ALTER TABLE ledger_entries ADD COLUMN statement_id TEXT")
		if err != nil {
			logger.L.Error("Error adding 'statement_id' column to 'ledger_entries' table", "error", err)
		} else {
			logger.L.Info("Added 'statement_id' column to 'ledger_entries' table")
		}
	}
	if _, exists := columnExists["reference"]; !exists {
		_, err := DB.Exec("ALTER TABLE ledger_entries ADD COLUMN reference TEXT")
		if err != nil {
			logger.L.Error("Error adding 'reference' column to 'ledger_entries' table", "error", err)
		} else {
			logger.L.Info("Added 'reference' column to 'ledger_entries' table")
		}
	}
}

// tableColumns returns the column set of an existing table, or ok=false when
// the table does not exist yet (creation will bring the full schema).
func tableColumns(table string) (map[string]bool, bool) {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			logger.L.Info("Table does not exist, no migration needed as table will be created.", "table", table)
			return nil, false
		}
		logger.L.Error("Error checking for table", "table", table, "error", err)
		return nil, false
	}

	rows, err := DB.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		logger.L.Error("Error querying table schema", "table", table, "error", err)
		return nil, false
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			logger.L.Error("Error scanning column info", "table", table, "error", err)
			return nil, false
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		logger.L.Error("Error iterating over column info", "table", table, "error", err)
		return nil, false
	}
	return columnExists, true
}
