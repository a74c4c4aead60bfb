//go:build integration
// +build integration

package rules_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/courtflow/compliance/rules"

	_ "github.com/lib/pq"
)

// setupTestDB creates a PostgreSQL container and returns a connection
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "compliance_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(60 * time.Second),
	}

	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgresContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	connStr := fmt.Sprintf("host=%s port=%s user=test password=test dbname=compliance_test sslmode=disable", host, port.Port())

	// Wait for connection to be available
	var db *sql.DB
	for i := 0; i < 30; i++ {
		db, err = sql.Open("postgres", connStr)
		if err == nil {
			err = db.Ping()
			if err == nil {
				break
			}
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	migrationSQL, err := os.ReadFile(filepath.Join("..", "migrations", "000001_initial_schema.up.sql"))
	if err != nil {
		// Try without the ../ prefix
		migrationSQL, err = os.ReadFile(filepath.Join("migrations", "000001_initial_schema.up.sql"))
		if err != nil {
			t.Fatalf("Failed to read migration file: %v", err)
		}
	}

	_, err = db.Exec(string(migrationSQL))
	if err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		db.Close()
		postgresContainer.Terminate(ctx)
	}

	return db, cleanup
}

func newIntegrationRule(name string) *rules.Rule {
	jurisdiction := "dc-district"
	citation := "FRCP 12(a)"
	return &rules.Rule{
		ID:           uuid.New(),
		Name:         name,
		Source:       "FRCP",
		Category:     "deadline",
		Priority:     20,
		Status:       rules.StatusActive,
		Jurisdiction: &jurisdiction,
		Citation:     &citation,
		Conditions:   json.RawMessage(`[{"type": "field_equals", "field": "case_type", "value": "civil"}]`),
		Actions:      json.RawMessage(`[{"type": "generate_deadline", "description": "Answer due", "days_from_trigger": 21}]`),
		Triggers:     json.RawMessage(`["case_filed", "complaint_filed"]`),
	}
}

func TestPostgresRuleStore_BasicCRUD(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := rules.NewPostgresRuleStore(db, "dc-court")

	// Test Add
	rule := newIntegrationRule("answer-deadline")
	if err := store.Add(rule); err != nil {
		t.Fatalf("Failed to add rule: %v", err)
	}

	// Test Get
	retrieved, err := store.Get(rule.ID)
	if err != nil {
		t.Fatalf("Failed to get rule: %v", err)
	}
	if retrieved.Name != "answer-deadline" {
		t.Errorf("Expected name 'answer-deadline', got '%s'", retrieved.Name)
	}
	if retrieved.Jurisdiction == nil || *retrieved.Jurisdiction != "dc-district" {
		t.Errorf("Jurisdiction not round-tripped: %v", retrieved.Jurisdiction)
	}
	if !retrieved.HasTrigger(rules.TriggerComplaintFiled) {
		t.Error("Triggers JSON not round-tripped")
	}

	// Test ListActive
	activeRules, err := store.ListActive()
	if err != nil {
		t.Fatalf("Failed to list active rules: %v", err)
	}
	if len(activeRules) != 1 {
		t.Errorf("Expected 1 active rule, got %d", len(activeRules))
	}

	// Test Update
	rule.Name = "renamed-rule"
	rule.Status = "Suspended"
	if err := store.Update(rule); err != nil {
		t.Fatalf("Failed to update rule: %v", err)
	}

	updated, err := store.Get(rule.ID)
	if err != nil {
		t.Fatalf("Failed to get updated rule: %v", err)
	}
	if updated.Name != "renamed-rule" {
		t.Errorf("Expected name 'renamed-rule', got '%s'", updated.Name)
	}

	// Verify it's not in active list
	activeRules, err = store.ListActive()
	if err != nil {
		t.Fatalf("Failed to list active rules: %v", err)
	}
	if len(activeRules) != 0 {
		t.Errorf("Expected 0 active rules, got %d", len(activeRules))
	}

	// Test Delete
	if err := store.Delete(rule.ID); err != nil {
		t.Fatalf("Failed to delete rule: %v", err)
	}
	if _, err := store.Get(rule.ID); err == nil {
		t.Error("Expected error when getting deleted rule, got nil")
	}
}

func TestPostgresRuleStore_CourtIsolation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	storeA := rules.NewPostgresRuleStore(db, "court-a")
	storeB := rules.NewPostgresRuleStore(db, "court-b")

	ruleA := newIntegrationRule("court-a-rule")
	if err := storeA.Add(ruleA); err != nil {
		t.Fatalf("Failed to add rule for court A: %v", err)
	}

	ruleB := newIntegrationRule("court-b-rule")
	if err := storeB.Add(ruleB); err != nil {
		t.Fatalf("Failed to add rule for court B: %v", err)
	}

	// Each court sees only its own rules
	if _, err := storeA.Get(ruleB.ID); err == nil {
		t.Error("Court A should not see court B's rule")
	}
	if _, err := storeB.Get(ruleA.ID); err == nil {
		t.Error("Court B should not see court A's rule")
	}

	rulesA, err := storeA.ListActive()
	if err != nil {
		t.Fatalf("Failed to list rules for court A: %v", err)
	}
	if len(rulesA) != 1 || rulesA[0].Name != "court-a-rule" {
		t.Errorf("Court A rules = %+v", rulesA)
	}

	rulesB, err := storeB.ListActive()
	if err != nil {
		t.Fatalf("Failed to list rules for court B: %v", err)
	}
	if len(rulesB) != 1 || rulesB[0].Name != "court-b-rule" {
		t.Errorf("Court B rules = %+v", rulesB)
	}
}

func TestPostgresRuleStore_DuplicateRuleID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := rules.NewPostgresRuleStore(db, "dc-court")

	rule := newIntegrationRule("dup")
	if err := store.Add(rule); err != nil {
		t.Fatalf("Failed to add rule: %v", err)
	}
	if err := store.Add(rule); err == nil {
		t.Error("Expected error when adding duplicate rule, got nil")
	}
}

func TestPostgresRuleStore_UpdateNonExistent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := rules.NewPostgresRuleStore(db, "dc-court")

	rule := newIntegrationRule("ghost")
	if err := store.Update(rule); err == nil {
		t.Error("Expected error when updating non-existent rule, got nil")
	}
}

func TestPostgresRuleStore_DeleteNonExistent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := rules.NewPostgresRuleStore(db, "dc-court")

	if err := store.Delete(uuid.New()); err == nil {
		t.Error("Expected error when deleting non-existent rule, got nil")
	}
}

func TestPostgresRuleStore_NullableFields(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := rules.NewPostgresRuleStore(db, "dc-court")

	// A global rule: no jurisdiction, citation, or effective window.
	rule := &rules.Rule{
		ID:         uuid.New(),
		Name:       "global-rule",
		Priority:   10,
		Status:     rules.StatusActive,
		Conditions: json.RawMessage(`[]`),
		Actions:    json.RawMessage(`[]`),
		Triggers:   json.RawMessage(`["case_filed"]`),
	}
	if err := store.Add(rule); err != nil {
		t.Fatalf("Failed to add rule: %v", err)
	}

	retrieved, err := store.Get(rule.ID)
	if err != nil {
		t.Fatalf("Failed to get rule: %v", err)
	}
	if retrieved.Jurisdiction != nil || retrieved.Citation != nil {
		t.Errorf("Expected nil optional fields, got jurisdiction=%v citation=%v",
			retrieved.Jurisdiction, retrieved.Citation)
	}
	if retrieved.EffectiveDate != nil || retrieved.ExpirationDate != nil {
		t.Error("Expected nil effective window")
	}
}

func TestRuleOrdering(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := rules.NewPostgresRuleStore(db, "dc-court")

	// Add rules in specific order
	for i := 1; i <= 5; i++ {
		rule := newIntegrationRule(fmt.Sprintf("rule-%d", i))
		if err := store.Add(rule); err != nil {
			t.Fatalf("Failed to add rule %d: %v", i, err)
		}
		time.Sleep(10 * time.Millisecond) // Ensure different timestamps
	}

	rulesList, err := store.ListActive()
	if err != nil {
		t.Fatalf("Failed to list rules: %v", err)
	}
	if len(rulesList) != 5 {
		t.Fatalf("Expected 5 rules, got %d", len(rulesList))
	}

	// Verify rules are in order by created_at
	for i := 0; i < len(rulesList)-1; i++ {
		if rulesList[i].CreatedAt.After(rulesList[i+1].CreatedAt) {
			t.Error("Rules are not ordered by created_at ascending")
		}
	}
}
