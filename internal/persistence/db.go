// Package persistence provides the SQLite-backed snapshot store for game
// state: players, markets, settings, round history, and game metadata.
// Round commits are transactional — a round is either fully persisted
// (players, markets, history entry, round counter) or not at all.
package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/boardroom/internal/game"
)

// DB wraps a SQLite connection for game state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		company_name TEXT NOT NULL,
		password TEXT NOT NULL,
		capital REAL NOT NULL,
		debt REAL NOT NULL,
		net_asset REAL NOT NULL,
		production_capacity INTEGER NOT NULL,
		employees INTEGER NOT NULL,
		product_quality REAL NOT NULL,
		stores_json TEXT NOT NULL,
		decision_json TEXT NOT NULL,
		outcome_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS markets (
		name TEXT PRIMARY KEY,
		total_market_size INTEGER NOT NULL,
		base_material_cost REAL NOT NULL,
		base_labor_cost REAL NOT NULL,
		loan_interest_rate REAL NOT NULL,
		initial_avg_price REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS round_history (
		id TEXT PRIMARY KEY,
		round INTEGER NOT NULL,
		recorded_at TEXT NOT NULL,
		snapshot_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS game_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_round ON round_history(round);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// HasGameState reports whether a game has been initialized in this database.
func (db *DB) HasGameState() bool {
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM players"); err != nil {
		return false
	}
	return count > 0
}

// SavePlayers writes all players (full replace) in one transaction.
func (db *DB) SavePlayers(players []*game.Player) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := savePlayersTx(tx, players); err != nil {
		return err
	}
	return tx.Commit()
}

func savePlayersTx(tx *sqlx.Tx, players []*game.Player) error {
	if _, err := tx.Exec("DELETE FROM players"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO players
		(id, company_name, password, capital, debt, net_asset,
		 production_capacity, employees, product_quality,
		 stores_json, decision_json, outcome_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range players {
		storesJSON, _ := json.Marshal(p.StoresPerCity)
		decisionJSON, _ := json.Marshal(p.Decision)
		outcomeJSON, _ := json.Marshal(p.Outcome)

		_, err := stmt.Exec(
			p.ID, p.CompanyName, p.Password, p.Capital, p.Debt, p.NetAsset,
			p.ProductionCapacity, p.Employees, p.ProductQuality,
			string(storesJSON), string(decisionJSON), string(outcomeJSON),
		)
		if err != nil {
			return fmt.Errorf("insert player %s: %w", p.ID, err)
		}
	}
	return nil
}

// LoadPlayers reads all players, in id order.
func (db *DB) LoadPlayers() ([]*game.Player, error) {
	rows, err := db.conn.Queryx(`SELECT id, company_name, password, capital, debt,
		net_asset, production_capacity, employees, product_quality,
		stores_json, decision_json, outcome_json
		FROM players ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*game.Player
	for rows.Next() {
		var (
			p                                     game.Player
			storesJSON, decisionJSON, outcomeJSON string
		)
		if err := rows.Scan(&p.ID, &p.CompanyName, &p.Password, &p.Capital, &p.Debt,
			&p.NetAsset, &p.ProductionCapacity, &p.Employees, &p.ProductQuality,
			&storesJSON, &decisionJSON, &outcomeJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(storesJSON), &p.StoresPerCity); err != nil {
			return nil, fmt.Errorf("player %s stores: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(decisionJSON), &p.Decision); err != nil {
			return nil, fmt.Errorf("player %s decision: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(outcomeJSON), &p.Outcome); err != nil {
			return nil, fmt.Errorf("player %s outcome: %w", p.ID, err)
		}
		if p.StoresPerCity == nil {
			p.StoresPerCity = map[string]int{}
		}
		players = append(players, &p)
	}
	return players, rows.Err()
}

// SaveMarkets writes all markets (full replace).
func (db *DB) SaveMarkets(markets []*game.Market) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveMarketsTx(tx, markets); err != nil {
		return err
	}
	return tx.Commit()
}

func saveMarketsTx(tx *sqlx.Tx, markets []*game.Market) error {
	if _, err := tx.Exec("DELETE FROM markets"); err != nil {
		return err
	}
	for _, m := range markets {
		_, err := tx.Exec(`INSERT INTO markets
			(name, total_market_size, base_material_cost, base_labor_cost,
			 loan_interest_rate, initial_avg_price)
			VALUES (?, ?, ?, ?, ?, ?)`,
			m.Name, m.TotalMarketSize, m.BaseMaterialCost, m.BaseLaborCost,
			m.LoanInterestRate, m.InitialAvgPrice)
		if err != nil {
			return fmt.Errorf("insert market %s: %w", m.Name, err)
		}
	}
	return nil
}

// LoadMarkets reads all markets, in name order.
func (db *DB) LoadMarkets() ([]*game.Market, error) {
	rows, err := db.conn.Queryx(`SELECT name, total_market_size, base_material_cost,
		base_labor_cost, loan_interest_rate, initial_avg_price
		FROM markets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var markets []*game.Market
	for rows.Next() {
		var m game.Market
		if err := rows.Scan(&m.Name, &m.TotalMarketSize, &m.BaseMaterialCost,
			&m.BaseLaborCost, &m.LoanInterestRate, &m.InitialAvgPrice); err != nil {
			return nil, err
		}
		markets = append(markets, &m)
	}
	return markets, rows.Err()
}

// SaveSettings persists game settings as metadata.
func (db *DB) SaveSettings(settings game.GameSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return db.SetMeta("settings", string(raw))
}

// LoadSettings reads persisted settings; sql.ErrNoRows when never saved.
func (db *DB) LoadSettings() (game.GameSettings, error) {
	var settings game.GameSettings
	raw, err := db.GetMeta("settings")
	if err != nil {
		return settings, err
	}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return settings, fmt.Errorf("settings: %w", err)
	}
	return settings, nil
}

// Round returns the persisted round counter (0 when never advanced).
func (db *DB) Round() (int, error) {
	raw, err := db.GetMeta("round")
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}

// CommitRound persists a resolved round atomically: the post-round players
// and markets, the history entry, and the round counter. Either all of it
// lands or none of it does.
func (db *DB) CommitRound(round int, players []*game.Player, markets []*game.Market, entry game.RoundHistoryEntry) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := savePlayersTx(tx, players); err != nil {
		return err
	}
	if err := saveMarketsTx(tx, markets); err != nil {
		return err
	}

	snapshot, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO round_history (id, round, recorded_at, snapshot_json)
		VALUES (?, ?, ?, ?)`,
		entry.ID, entry.Round, entry.RecordedAt.Format(time.RFC3339Nano), string(snapshot)); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO game_meta (key, value) VALUES ('round', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.Itoa(round)); err != nil {
		return err
	}
	return tx.Commit()
}

// Reset wipes the game back to an initial state in one transaction:
// fresh players and markets, settings, round zero, empty history.
func (db *DB) Reset(players []*game.Player, markets []*game.Market, settings game.GameSettings) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := savePlayersTx(tx, players); err != nil {
		return err
	}
	if err := saveMarketsTx(tx, markets); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM round_history"); err != nil {
		return err
	}

	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	for key, value := range map[string]string{
		"round":    "0",
		"settings": string(settingsJSON),
	} {
		if _, err := tx.Exec(`INSERT INTO game_meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadHistory returns up to limit entries, newest round first. limit <= 0
// returns everything.
func (db *DB) LoadHistory(limit int) ([]game.RoundHistoryEntry, error) {
	query := "SELECT snapshot_json FROM round_history ORDER BY round DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Queryx(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []game.RoundHistoryEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var entry game.RoundHistoryEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetMeta reads one metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM game_meta WHERE key = ?", key)
	return value, err
}

// SetMeta writes one metadata value.
func (db *DB) SetMeta(key, value string) error {
	_, err := db.conn.Exec(`INSERT INTO game_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
