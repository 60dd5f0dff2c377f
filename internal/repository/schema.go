package repository

// Schema definitions for the InsuraX database.
// Compatible with both SQLite and PostgreSQL.

const schemaClaims = `
CREATE TABLE IF NOT EXISTS claims (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    policy_id TEXT NOT NULL,
    insurance_type TEXT NOT NULL,
    amount REAL NOT NULL,
    sum_insured REAL NOT NULL DEFAULT 0,
    incident_date TIMESTAMP,
    submitted_date TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL,
    incident_to_claim_days INTEGER NOT NULL DEFAULT 0,
    previous_claims_count INTEGER NOT NULL DEFAULT 0,
    policy_duration_days INTEGER NOT NULL DEFAULT 0,
    description TEXT,
    claimant_name TEXT,
    claimant_email TEXT,
    claimant_phone TEXT
);

CREATE INDEX IF NOT EXISTS idx_claims_user ON claims(user_id);
CREATE INDEX IF NOT EXISTS idx_claims_policy ON claims(policy_id);
CREATE INDEX IF NOT EXISTS idx_claims_submitted ON claims(user_id, submitted_date);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT,
    email TEXT,
    phone TEXT,
    fraud_score REAL NOT NULL DEFAULT 0,
    claims_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
CREATE INDEX IF NOT EXISTS idx_users_phone ON users(phone);
`

const schemaPolicies = `
CREATE TABLE IF NOT EXISTS policies (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    type TEXT,
    sum_insured REAL NOT NULL DEFAULT 0,
    start_date TEXT
);

CREATE INDEX IF NOT EXISTS idx_policies_user ON policies(user_id);
`

const schemaRuleConfigs = `
CREATE TABLE IF NOT EXISTS rule_configs (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    version TEXT NOT NULL,
    expression TEXT NOT NULL,
    severity REAL NOT NULL DEFAULT 0.8,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rule_configs_enabled ON rule_configs(enabled);
`

const schemaEvaluations = `
CREATE TABLE IF NOT EXISTS evaluations (
    id TEXT PRIMARY KEY,
    claim_id TEXT NOT NULL,
    fraud_score REAL NOT NULL,
    risk_level TEXT NOT NULL,
    is_fraud INTEGER NOT NULL DEFAULT 0,
    overridden INTEGER NOT NULL DEFAULT 0,
    timestamp TIMESTAMP NOT NULL,
    score TEXT NOT NULL,
    metadata TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evaluations_claim ON evaluations(claim_id);
CREATE INDEX IF NOT EXISTS idx_evaluations_risk ON evaluations(risk_level);
CREATE INDEX IF NOT EXISTS idx_evaluations_timestamp ON evaluations(timestamp);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaClaims,
		schemaUsers,
		schemaPolicies,
		schemaRuleConfigs,
		schemaEvaluations,
	}
}
