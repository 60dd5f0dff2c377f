// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SoganiJ/insurax/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveClaim stores or updates a claim.
func (r *SQLRepository) SaveClaim(ctx context.Context, claim *domain.Claim) error {
	if claim == nil || claim.ID == "" {
		return fmt.Errorf("%w: claim id is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO claims (
			id, user_id, policy_id, insurance_type, amount, sum_insured,
			incident_date, submitted_date, created_at,
			incident_to_claim_days, previous_claims_count, policy_duration_days,
			description, claimant_name, claimant_email, claimant_phone
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			sum_insured = excluded.sum_insured,
			previous_claims_count = excluded.previous_claims_count,
			description = excluded.description
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		claim.ID, claim.UserID, claim.PolicyID, claim.InsuranceType,
		claim.Amount, claim.SumInsured,
		claim.IncidentDate, claim.SubmittedDate, claim.CreatedAt,
		claim.IncidentToClaimDays, claim.PreviousClaimsCount, claim.PolicyDurationDays,
		claim.Description, claim.ClaimantName, claim.ClaimantEmail, claim.ClaimantPhone,
	)
	return err
}

const claimColumns = `id, user_id, policy_id, insurance_type, amount, sum_insured,
			   incident_date, submitted_date, created_at,
			   incident_to_claim_days, previous_claims_count, policy_duration_days,
			   description, claimant_name, claimant_email, claimant_phone`

func scanClaim(scan func(dest ...any) error) (*domain.Claim, error) {
	var c domain.Claim
	err := scan(
		&c.ID, &c.UserID, &c.PolicyID, &c.InsuranceType,
		&c.Amount, &c.SumInsured,
		&c.IncidentDate, &c.SubmittedDate, &c.CreatedAt,
		&c.IncidentToClaimDays, &c.PreviousClaimsCount, &c.PolicyDurationDays,
		&c.Description, &c.ClaimantName, &c.ClaimantEmail, &c.ClaimantPhone,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetClaim retrieves a claim by ID.
func (r *SQLRepository) GetClaim(ctx context.Context, claimID string) (*domain.Claim, error) {
	if claimID == "" {
		return nil, fmt.Errorf("%w: claim id is required", ErrInvalidInput)
	}

	query := `SELECT ` + claimColumns + ` FROM claims WHERE id = ?`

	row := r.db.QueryRowContext(ctx, r.rebind(query), claimID)
	claim, err := scanClaim(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// ListClaimsByUser retrieves a user's claims submitted since the cutoff.
func (r *SQLRepository) ListClaimsByUser(ctx context.Context, userID string, since time.Time) ([]*domain.Claim, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	query := `
		SELECT ` + claimColumns + `
		FROM claims
		WHERE user_id = ?
		  AND submitted_date >= ?
		ORDER BY submitted_date DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectClaims(rows)
}

// ListClaims retrieves every stored claim, newest first.
func (r *SQLRepository) ListClaims(ctx context.Context) ([]*domain.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims ORDER BY submitted_date DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectClaims(rows)
}

func collectClaims(rows *sql.Rows) ([]*domain.Claim, error) {
	var claims []*domain.Claim
	for rows.Next() {
		claim, err := scanClaim(rows.Scan)
		if err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}
	return claims, rows.Err()
}

// SaveUser stores or updates a user read model.
func (r *SQLRepository) SaveUser(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO users (id, name, email, phone, fraud_score, claims_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			fraud_score = excluded.fraud_score,
			claims_count = excluded.claims_count
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		user.ID, user.Name, user.Email, user.Phone, user.FraudScore, user.ClaimsCount,
	)
	return err
}

// ListUsers retrieves all user read models.
func (r *SQLRepository) ListUsers(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT id, name, email, phone, fraud_score, claims_count FROM users ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.FraudScore, &u.ClaimsCount); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// SavePolicy stores or updates a policy read model.
func (r *SQLRepository) SavePolicy(ctx context.Context, policy *domain.Policy) error {
	if policy == nil || policy.ID == "" {
		return fmt.Errorf("%w: policy id is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO policies (id, user_id, type, sum_insured, start_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			type = excluded.type,
			sum_insured = excluded.sum_insured,
			start_date = excluded.start_date
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		policy.ID, policy.UserID, policy.Type, policy.SumInsured, policy.StartDate,
	)
	return err
}

// ListPolicies retrieves all policy read models.
func (r *SQLRepository) ListPolicies(ctx context.Context) ([]*domain.Policy, error) {
	query := `SELECT id, user_id, type, sum_insured, start_date FROM policies ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []*domain.Policy
	for rows.Next() {
		var p domain.Policy
		if err := rows.Scan(&p.ID, &p.UserID, &p.Type, &p.SumInsured, &p.StartDate); err != nil {
			return nil, err
		}
		policies = append(policies, &p)
	}
	return policies, rows.Err()
}

// SaveRuleConfig stores a custom rule configuration.
func (r *SQLRepository) SaveRuleConfig(ctx context.Context, rule *domain.RuleConfig) error {
	if rule == nil || rule.ID == "" {
		return fmt.Errorf("%w: rule id is required", ErrInvalidInput)
	}

	enabled := 0
	if rule.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO rule_configs (
			id, name, description, version, expression, severity, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			version = excluded.version,
			expression = excluded.expression,
			severity = excluded.severity,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, rule.Name, rule.Description,
		rule.Version, rule.Expression, rule.Severity, enabled,
		now, now,
	)
	return err
}

// GetRuleConfig retrieves a custom rule configuration.
func (r *SQLRepository) GetRuleConfig(ctx context.Context, ruleID string) (*domain.RuleConfig, error) {
	if ruleID == "" {
		return nil, fmt.Errorf("%w: rule id is required", ErrInvalidInput)
	}

	query := `
		SELECT id, name, description, version, expression, severity, enabled
		FROM rule_configs
		WHERE id = ?
	`

	var cfg domain.RuleConfig
	var enabled int

	err := r.db.QueryRowContext(ctx, r.rebind(query), ruleID).Scan(
		&cfg.ID, &cfg.Name, &cfg.Description,
		&cfg.Version, &cfg.Expression, &cfg.Severity, &enabled,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	cfg.Enabled = enabled == 1

	return &cfg, nil
}

// ListRuleConfigs retrieves all enabled custom rule configurations.
func (r *SQLRepository) ListRuleConfigs(ctx context.Context) ([]*domain.RuleConfig, error) {
	query := `
		SELECT id, name, description, version, expression, severity, enabled
		FROM rule_configs
		WHERE enabled = 1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*domain.RuleConfig
	for rows.Next() {
		var cfg domain.RuleConfig
		var enabled int

		if err := rows.Scan(
			&cfg.ID, &cfg.Name, &cfg.Description,
			&cfg.Version, &cfg.Expression, &cfg.Severity, &enabled,
		); err != nil {
			return nil, err
		}

		cfg.Enabled = enabled == 1
		configs = append(configs, &cfg)
	}

	return configs, rows.Err()
}

// DeleteRuleConfig soft-deletes a rule by setting enabled = 0.
func (r *SQLRepository) DeleteRuleConfig(ctx context.Context, ruleID string) error {
	if ruleID == "" {
		return fmt.Errorf("%w: rule id is required", ErrInvalidInput)
	}

	query := `
		UPDATE rule_configs
		SET enabled = 0, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), time.Now().UTC(), ruleID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// SaveEvaluation stores an evaluation result.
func (r *SQLRepository) SaveEvaluation(ctx context.Context, eval *domain.Evaluation) error {
	if eval == nil || eval.ID == "" {
		return fmt.Errorf("%w: evaluation id is required", ErrInvalidInput)
	}

	score, _ := json.Marshal(eval.Score)
	metadata, _ := json.Marshal(eval.Metadata)

	overridden := 0
	if eval.Score.Overridden {
		overridden = 1
	}
	isFraud := 0
	if eval.Score.IsFraud {
		isFraud = 1
	}

	query := `
		INSERT INTO evaluations (
			id, claim_id, fraud_score, risk_level, is_fraud, overridden,
			timestamp, score, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		eval.ID, eval.ClaimID,
		eval.Score.FraudScore, string(eval.Score.RiskLevel), isFraud, overridden,
		eval.Timestamp, string(score), string(metadata),
	)
	return err
}

// GetEvaluation retrieves an evaluation by ID.
func (r *SQLRepository) GetEvaluation(ctx context.Context, evalID string) (*domain.Evaluation, error) {
	if evalID == "" {
		return nil, fmt.Errorf("%w: evaluation id is required", ErrInvalidInput)
	}

	query := `
		SELECT id, claim_id, timestamp, score, metadata
		FROM evaluations
		WHERE id = ?
	`

	var eval domain.Evaluation
	var score, metadata string

	err := r.db.QueryRowContext(ctx, r.rebind(query), evalID).Scan(
		&eval.ID, &eval.ClaimID, &eval.Timestamp, &score, &metadata,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	json.Unmarshal([]byte(score), &eval.Score)
	json.Unmarshal([]byte(metadata), &eval.Metadata)

	return &eval, nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
