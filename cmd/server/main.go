package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/courtflow/compliance/compliance"
	"github.com/courtflow/compliance/rules"
)

type Server struct {
	db     *sql.DB
	engine *compliance.Engine
	router *chi.Mux

	// Per-court snapshot caches, invalidated on rule mutation.
	mu     sync.Mutex
	caches map[string]rules.RulesCache
}

func NewServer(databaseURL string) (*Server, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewServerWithDB(db)
}

func NewServerWithDB(db *sql.DB) (*Server, error) {
	engine, err := compliance.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to create compliance engine: %w", err)
	}

	s := &Server{
		db:     db,
		engine: engine,
		caches: make(map[string]rules.RulesCache),
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/api/v1/health", s.handleHealth)

	// Compliance pipeline
	r.Post("/api/v1/compliance/evaluate", s.handleEvaluate)

	// Deadline computation and court calendar
	r.Post("/api/v1/deadlines/compute", s.handleComputeDeadline)
	r.Get("/api/v1/holidays/{year}", s.handleHolidays)

	// Rule management
	r.Route("/api/v1/courts/{courtID}/rules", func(r chi.Router) {
		r.Get("/", s.handleListRules)
		r.Post("/", s.handleCreateRule)
		r.Get("/{ruleID}", s.handleGetRule)
		r.Put("/{ruleID}", s.handleUpdateRule)
		r.Delete("/{ruleID}", s.handleDeleteRule)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// cacheFor returns the snapshot cache for a court, creating it on first use.
func (s *Server) cacheFor(courtID string) rules.RulesCache {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache, ok := s.caches[courtID]
	if !ok {
		cache = rules.NewInMemoryRulesCache(rules.DefaultCacheConfig())
		s.caches[courtID] = cache
	}
	return cache
}

// activeRules loads the active-rule snapshot for a court, via cache.
func (s *Server) activeRules(courtID string) ([]rules.Rule, error) {
	cache := s.cacheFor(courtID)

	cached := cache.Get()
	if cached == nil {
		store := rules.NewPostgresRuleStore(s.db, courtID)
		var err error
		cached, err = store.ListActive()
		if err != nil {
			return nil, err
		}
		cache.Set(cached)
	}

	snapshot := make([]rules.Rule, 0, len(cached))
	for _, r := range cached {
		snapshot = append(snapshot, *r)
	}
	return snapshot, nil
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Compliance evaluation handler
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.CourtID == "" {
		respondError(w, http.StatusBadRequest, "court_id is required", nil)
		return
	}
	if req.Context == nil {
		respondError(w, http.StatusBadRequest, "context is required", nil)
		return
	}

	trigger, ok := rules.ParseTriggerEvent(req.Trigger)
	if !ok {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown trigger event %q", req.Trigger), nil)
		return
	}

	snapshot, err := s.activeRules(req.CourtID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load rules", err)
		return
	}

	startTime := time.Now()
	report := s.engine.RunPipeline(req.Context.JurisdictionID, trigger, req.Context, snapshot)
	evaluationTime := time.Since(startTime)

	for _, id := range report.Degraded {
		log.Printf("rule %s: malformed stored conditions/actions degraded to empty", id)
	}

	respondJSON(w, http.StatusOK, EvaluateResponse{
		Report:         report,
		RulesEvaluated: len(report.Results),
		EvaluationTime: evaluationTime.String(),
	})
}

// Deadline computation handler
func (s *Server) handleComputeDeadline(w http.ResponseWriter, r *http.Request) {
	var req ComputeDeadlineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	method := rules.ServiceMethod(req.ServiceMethod)
	if method == "" {
		method = rules.ServiceElectronic
	}

	result, err := compliance.ComputeDeadline(compliance.DeadlineRequest{
		TriggerDate:   req.TriggerDate,
		PeriodDays:    req.PeriodDays,
		ServiceMethod: method,
		Jurisdiction:  req.Jurisdiction,
		Description:   req.Description,
		RuleCitation:  req.RuleCitation,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid deadline request", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Federal holidays handler
func (s *Server) handleHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1900 || year > 2200 {
		respondError(w, http.StatusBadRequest, "invalid year", err)
		return
	}

	respondJSON(w, http.StatusOK, HolidaysResponse{
		Year:     year,
		Holidays: compliance.FederalHolidays(year),
	})
}

// Create rule handler
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	courtID := chi.URLParam(r, "courtID")

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	rule := &rules.Rule{
		ID:           uuid.New(),
		CourtID:      courtID,
		Name:         req.Name,
		Description:  req.Description,
		Source:       req.Source,
		Category:     req.Category,
		Priority:     req.Priority,
		Status:       rules.StatusActive,
		Jurisdiction: req.Jurisdiction,
		Citation:     req.Citation,
		Conditions:   json.RawMessage(`[]`),
		Actions:      json.RawMessage(`[]`),
		Triggers:     json.RawMessage(`[]`),
	}
	if req.Status != nil {
		rule.Status = *req.Status
	}

	if req.EffectiveDate != nil {
		t, err := time.Parse(time.RFC3339, *req.EffectiveDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid effective_date", err)
			return
		}
		rule.EffectiveDate = &t
	}
	if req.ExpirationDate != nil {
		t, err := time.Parse(time.RFC3339, *req.ExpirationDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid expiration_date", err)
			return
		}
		rule.ExpirationDate = &t
	}

	if req.Conditions != nil {
		if err := s.validateConditions(req.Conditions); err != nil {
			respondError(w, http.StatusBadRequest, "invalid conditions", err)
			return
		}
		rule.Conditions = req.Conditions
	}
	if req.Actions != nil {
		if !json.Valid(req.Actions) {
			respondError(w, http.StatusBadRequest, "invalid actions", nil)
			return
		}
		rule.Actions = req.Actions
	}
	if req.Triggers != nil {
		triggers, err := validateTriggers(req.Triggers)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid triggers", err)
			return
		}
		rule.Triggers = triggers
	}

	store := rules.NewPostgresRuleStore(s.db, courtID)
	if err := store.Add(rule); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create rule", err)
		return
	}

	s.cacheFor(courtID).Invalidate()

	respondJSON(w, http.StatusCreated, rule)
}

// List rules handler
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	courtID := chi.URLParam(r, "courtID")

	store := rules.NewPostgresRuleStore(s.db, courtID)
	active, err := store.ListActive()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list rules", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"rules": active,
	})
}

// Get rule handler
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	courtID := chi.URLParam(r, "courtID")

	ruleID, err := uuid.Parse(chi.URLParam(r, "ruleID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule id", err)
		return
	}

	store := rules.NewPostgresRuleStore(s.db, courtID)
	rule, err := store.Get(ruleID)
	if err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	respondJSON(w, http.StatusOK, rule)
}

// Update rule handler
func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	courtID := chi.URLParam(r, "courtID")

	ruleID, err := uuid.Parse(chi.URLParam(r, "ruleID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule id", err)
		return
	}

	var req UpdateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	store := rules.NewPostgresRuleStore(s.db, courtID)
	rule, err := store.Get(ruleID)
	if err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Description != nil {
		rule.Description = req.Description
	}
	if req.Source != nil {
		rule.Source = *req.Source
	}
	if req.Category != nil {
		rule.Category = *req.Category
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.Status != nil {
		rule.Status = *req.Status
	}
	if req.Jurisdiction != nil {
		rule.Jurisdiction = req.Jurisdiction
	}
	if req.Citation != nil {
		rule.Citation = req.Citation
	}
	if req.EffectiveDate != nil {
		t, err := time.Parse(time.RFC3339, *req.EffectiveDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid effective_date", err)
			return
		}
		rule.EffectiveDate = &t
	}
	if req.ExpirationDate != nil {
		t, err := time.Parse(time.RFC3339, *req.ExpirationDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid expiration_date", err)
			return
		}
		rule.ExpirationDate = &t
	}
	if req.Conditions != nil {
		if err := s.validateConditions(req.Conditions); err != nil {
			respondError(w, http.StatusBadRequest, "invalid conditions", err)
			return
		}
		rule.Conditions = req.Conditions
	}
	if req.Actions != nil {
		if !json.Valid(req.Actions) {
			respondError(w, http.StatusBadRequest, "invalid actions", nil)
			return
		}
		rule.Actions = req.Actions
	}
	if req.Triggers != nil {
		triggers, err := validateTriggers(req.Triggers)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid triggers", err)
			return
		}
		rule.Triggers = triggers
	}

	if err := store.Update(rule); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update rule", err)
		return
	}

	s.cacheFor(courtID).Invalidate()

	respondJSON(w, http.StatusOK, rule)
}

// Delete rule handler
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	courtID := chi.URLParam(r, "courtID")

	ruleID, err := uuid.Parse(chi.URLParam(r, "ruleID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule id", err)
		return
	}

	store := rules.NewPostgresRuleStore(s.db, courtID)
	if err := store.Delete(ruleID); err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	s.cacheFor(courtID).Invalidate()

	w.WriteHeader(http.StatusNoContent)
}

// validateConditions checks authored condition JSON: it must parse as one of
// the recognized shapes, and any expression conditions in the typed form must
// compile. Legacy flat objects are accepted as-is since the engine normalizes
// them at evaluation time.
func (s *Server) validateConditions(data json.RawMessage) error {
	conditions, err := compliance.ParseConditions(data)
	if err != nil {
		return err
	}

	for _, cond := range conditions {
		if err := s.validateExpressions(&cond); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) validateExpressions(c *compliance.RuleCondition) error {
	if c.Type == compliance.CondExpression {
		if _, err := s.engine.Evaluator().CompileExpression(c.Expression); err != nil {
			return fmt.Errorf("expression %q: %w", c.Expression, err)
		}
	}
	for i := range c.Conditions {
		if err := s.validateExpressions(&c.Conditions[i]); err != nil {
			return err
		}
	}
	if c.Condition != nil {
		return s.validateExpressions(c.Condition)
	}
	return nil
}

// validateTriggers checks every trigger name and returns the JSON array to
// store.
func validateTriggers(names []string) (json.RawMessage, error) {
	for _, n := range names {
		if _, ok := rules.ParseTriggerEvent(n); !ok {
			return nil, fmt.Errorf("unknown trigger event %q", n)
		}
	}
	return json.Marshal(names)
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	server, err := NewServer(databaseURL)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer server.db.Close()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
