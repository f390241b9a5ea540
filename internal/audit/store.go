package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/nerrad567/iotgw/internal/infrastructure/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS rule_firings (
	id TEXT PRIMARY KEY,
	rule_id TEXT NOT NULL,
	sensor_id TEXT NOT NULL,
	value REAL NOT NULL,
	fired_at_unix_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS action_firings (
	id TEXT PRIMARY KEY,
	rule_firing_id TEXT NOT NULL REFERENCES rule_firings(id),
	seq INTEGER NOT NULL,
	action_type TEXT NOT NULL,
	target TEXT NOT NULL,
	detail TEXT NOT NULL,
	published INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rule_firings_rule_id ON rule_firings(rule_id);
CREATE INDEX IF NOT EXISTS idx_action_firings_firing_id ON action_firings(rule_firing_id);
`

// ActionFiring is one action taken as a result of a rule firing.
type ActionFiring struct {
	ActionType string
	Target     string
	Detail     string
	Published  bool
}

// Firing is a rule firing together with the actions it took.
type Firing struct {
	ID            string
	RuleID        string
	SensorID      string
	Value         float64
	FiredAtUnixMs int64
	Actions       []ActionFiring
}

// Store is the execution store's SQLite-backed handle.
type Store struct {
	db *database.DB
}

// Open opens (creating if needed) the SQLite database at path, in WAL
// mode with a 5 second busy timeout, and bootstraps the schema.
func Open(path string) (*Store, error) {
	db, err := database.Open(database.Config{Path: path, WALMode: true, BusyTimeout: 5})
	if err != nil {
		return nil, fmt.Errorf("audit: open: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: bootstrap schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordFiring inserts one rule_firings row and its action_firings rows
// in a single transaction, in list order (seq 0, 1, …).
func (s *Store) RecordFiring(ctx context.Context, ruleID, sensorID string, value float64, firedAtUnixMs int64, actions []ActionFiring) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("audit: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op once committed

	firingID := "fir-" + uuid.NewString()[:8]
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rule_firings (id, rule_id, sensor_id, value, fired_at_unix_ms) VALUES (?, ?, ?, ?, ?)`,
		firingID, ruleID, sensorID, value, firedAtUnixMs,
	); err != nil {
		return fmt.Errorf("audit: insert rule_firings: %w", err)
	}

	for seq, a := range actions {
		actionID := "act-" + uuid.NewString()[:8]
		published := 0
		if a.Published {
			published = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO action_firings (id, rule_firing_id, seq, action_type, target, detail, published) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			actionID, firingID, seq, a.ActionType, a.Target, a.Detail, published,
		); err != nil {
			return fmt.Errorf("audit: insert action_firings: %w", err)
		}
	}

	return tx.Commit()
}

// RecentFirings returns the most recent firings, newest first, optionally
// filtered by ruleID (pass "" for no filter). A limit of zero or below
// means 50; a limit above 200 is capped at 200.
func (s *Store) RecentFirings(ctx context.Context, ruleID string, limit int) ([]Firing, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	query := `SELECT id, rule_id, sensor_id, value, fired_at_unix_ms FROM rule_firings`
	args := []any{}
	if ruleID != "" {
		query += ` WHERE rule_id = ?`
		args = append(args, ruleID)
	}
	query += ` ORDER BY fired_at_unix_ms DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query rule_firings: %w", err)
	}
	defer rows.Close()

	var firings []Firing
	byID := make(map[string]*Firing)
	for rows.Next() {
		var f Firing
		if err := rows.Scan(&f.ID, &f.RuleID, &f.SensorID, &f.Value, &f.FiredAtUnixMs); err != nil {
			return nil, fmt.Errorf("audit: scan rule_firings: %w", err)
		}
		firings = append(firings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range firings {
		byID[firings[i].ID] = &firings[i]
	}

	if len(firings) == 0 {
		return nil, nil
	}

	placeholders := ""
	actionArgs := make([]any, 0, len(firings))
	for i, f := range firings {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		actionArgs = append(actionArgs, f.ID)
	}

	actionRows, err := s.db.QueryContext(ctx,
		`SELECT rule_firing_id, action_type, target, detail, published FROM action_firings
		 WHERE rule_firing_id IN (`+placeholders+`) ORDER BY rule_firing_id, seq ASC`,
		actionArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("audit: query action_firings: %w", err)
	}
	defer actionRows.Close()

	for actionRows.Next() {
		var firingID string
		var a ActionFiring
		var published int
		if err := actionRows.Scan(&firingID, &a.ActionType, &a.Target, &a.Detail, &published); err != nil {
			return nil, fmt.Errorf("audit: scan action_firings: %w", err)
		}
		a.Published = published != 0
		if f, ok := byID[firingID]; ok {
			f.Actions = append(f.Actions, a)
		}
	}
	if err := actionRows.Err(); err != nil {
		return nil, err
	}

	return firings, nil
}
