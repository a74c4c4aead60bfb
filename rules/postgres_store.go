package rules

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresRuleStore implements RuleStore backed by PostgreSQL, scoped to a
// single court.
type PostgresRuleStore struct {
	db      *sql.DB
	courtID string
}

// NewPostgresRuleStore creates a new PostgreSQL-backed RuleStore for a court.
func NewPostgresRuleStore(db *sql.DB, courtID string) *PostgresRuleStore {
	return &PostgresRuleStore{
		db:      db,
		courtID: courtID,
	}
}

const ruleColumns = `id, court_id, name, description, source, category, priority,
	status, jurisdiction, citation, effective_date, expiration_date,
	supersedes_rule_id, conditions, actions, triggers, created_at, updated_at`

func scanRule(row interface{ Scan(...any) error }) (*Rule, error) {
	var r Rule
	var conditions, actions, triggers []byte
	err := row.Scan(
		&r.ID,
		&r.CourtID,
		&r.Name,
		&r.Description,
		&r.Source,
		&r.Category,
		&r.Priority,
		&r.Status,
		&r.Jurisdiction,
		&r.Citation,
		&r.EffectiveDate,
		&r.ExpirationDate,
		&r.SupersedesRule,
		&conditions,
		&actions,
		&triggers,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Conditions = conditions
	r.Actions = actions
	r.Triggers = triggers
	return &r, nil
}

// Add inserts a new rule into the database.
func (s *PostgresRuleStore) Add(rule *Rule) error {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM rules WHERE id = $1 AND court_id = $2)
	`, rule.ID, s.courtID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check rule existence: %w", err)
	}
	if exists {
		return fmt.Errorf("rule with ID %s already exists", rule.ID)
	}

	now := time.Now()
	rule.CourtID = s.courtID
	rule.CreatedAt = now
	rule.UpdatedAt = now

	_, err = s.db.Exec(`
		INSERT INTO rules (id, court_id, name, description, source, category,
			priority, status, jurisdiction, citation, effective_date,
			expiration_date, supersedes_rule_id, conditions, actions, triggers,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18)
	`, rule.ID, s.courtID, rule.Name, rule.Description, rule.Source,
		rule.Category, rule.Priority, rule.Status, rule.Jurisdiction,
		rule.Citation, rule.EffectiveDate, rule.ExpirationDate,
		rule.SupersedesRule, []byte(rule.Conditions), []byte(rule.Actions),
		[]byte(rule.Triggers), rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}

	return nil
}

// Get retrieves a rule by ID.
func (s *PostgresRuleStore) Get(id uuid.UUID) (*Rule, error) {
	row := s.db.QueryRow(`
		SELECT `+ruleColumns+`
		FROM rules
		WHERE id = $1 AND court_id = $2
	`, id, s.courtID)

	rule, err := scanRule(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rule %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

// ListActive returns all active rules for the court.
func (s *PostgresRuleStore) ListActive() ([]*Rule, error) {
	rows, err := s.db.Query(`
		SELECT `+ruleColumns+`
		FROM rules
		WHERE court_id = $1 AND status = $2
		ORDER BY created_at
	`, s.courtID, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var active []*Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		active = append(active, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return active, nil
}

// Update replaces an existing rule's mutable fields.
func (s *PostgresRuleStore) Update(rule *Rule) error {
	rule.UpdatedAt = time.Now()

	res, err := s.db.Exec(`
		UPDATE rules
		SET name = $3, description = $4, source = $5, category = $6,
			priority = $7, status = $8, jurisdiction = $9, citation = $10,
			effective_date = $11, expiration_date = $12,
			supersedes_rule_id = $13, conditions = $14, actions = $15,
			triggers = $16, updated_at = $17
		WHERE id = $1 AND court_id = $2
	`, rule.ID, s.courtID, rule.Name, rule.Description, rule.Source,
		rule.Category, rule.Priority, rule.Status, rule.Jurisdiction,
		rule.Citation, rule.EffectiveDate, rule.ExpirationDate,
		rule.SupersedesRule, []byte(rule.Conditions), []byte(rule.Actions),
		[]byte(rule.Triggers), rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %s not found", rule.ID)
	}
	return nil
}

// Delete removes a rule.
func (s *PostgresRuleStore) Delete(id uuid.UUID) error {
	res, err := s.db.Exec(`
		DELETE FROM rules WHERE id = $1 AND court_id = $2
	`, id, s.courtID)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %s not found", id)
	}
	return nil
}
