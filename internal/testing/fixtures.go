package testing

import (
	"database/sql"
	"testing"
	"time"
)

// AgentFixture describes a ceo_agents row to seed.
type AgentFixture struct {
	Name            string
	TokenSymbol     string
	TotalTokens     int
	TokensAvailable int
	PricePerToken   float64
	LaunchDate      int64 // unix seconds; zero means one hour from now
}

// DefaultAgent returns an agent that is on sale and not yet due.
func DefaultAgent(symbol string) AgentFixture {
	return AgentFixture{
		Name:            "Agent " + symbol,
		TokenSymbol:     symbol,
		TotalTokens:     100,
		TokensAvailable: 100,
		PricePerToken:   5.0,
	}
}

// InsertAgent seeds a ceo_agents row and returns its id.
func InsertAgent(t *testing.T, db *sql.DB, a AgentFixture) int64 {
	t.Helper()

	now := time.Now().Unix()
	if a.LaunchDate == 0 {
		a.LaunchDate = now + 3600
	}

	res, err := db.Exec(`
		INSERT INTO ceo_agents
		(name, company_idea, description, ceo_characteristics, creator_wallet, token_symbol,
		 total_tokens, tokens_available, price_per_token, status, launch_timeline, launch_date,
		 time_duration, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'available', 10, ?, 10, ?, ?)
	`, a.Name, "An idea for "+a.Name, "Description of "+a.Name, "Bold", "0xcreator",
		a.TokenSymbol, a.TotalTokens, a.TokensAvailable, a.PricePerToken, a.LaunchDate, now, now)
	if err != nil {
		t.Fatalf("Failed to insert agent fixture: %v", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("Failed to read agent fixture id: %v", err)
	}
	return id
}

// InsertCompany seeds a launched company together with its workflow cursor
// at the given step and status. It returns the company id.
func InsertCompany(t *testing.T, db *sql.DB, name string, agentID int64, step, status string) int64 {
	t.Helper()

	now := time.Now().Unix()
	res, err := db.Exec(`
		INSERT INTO companies
		(name, ceo_agent_id, status, current_revenue, launched_date, ceo_agent_name, token_symbol,
		 company_idea, description, ceo_characteristics, total_tokens, price_per_token,
		 time_duration, created_at, updated_at)
		VALUES (?, ?, 'running', 0, ?, ?, ?, ?, ?, 'Bold', 100, 5.0, 10, ?, ?)
	`, name, agentID, now, name+" CEO", "SYM", name+" idea", name+" description", now, now)
	if err != nil {
		t.Fatalf("Failed to insert company fixture: %v", err)
	}

	companyID, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("Failed to read company fixture id: %v", err)
	}

	_, err = db.Exec(`
		INSERT INTO company_workflow_state (company_id, current_step, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, companyID, step, status, now, now)
	if err != nil {
		t.Fatalf("Failed to insert workflow fixture: %v", err)
	}
	return companyID
}

// SetWorkflowPayload writes a raw JSON payload column, bypassing validation.
// Used to simulate corrupt rows.
func SetWorkflowPayload(t *testing.T, db *sql.DB, companyID int64, column, raw string) {
	t.Helper()

	switch column {
	case "research_data", "product_data", "marketing_strategy", "technical_strategy":
	default:
		t.Fatalf("Unknown workflow payload column %s", column)
	}

	if _, err := db.Exec("UPDATE company_workflow_state SET "+column+" = ? WHERE company_id = ?", raw, companyID); err != nil {
		t.Fatalf("Failed to set %s: %v", column, err)
	}
}

// BackdateWorkflow moves a workflow's updated_at into the past.
func BackdateWorkflow(t *testing.T, db *sql.DB, companyID int64, by time.Duration) {
	t.Helper()

	if _, err := db.Exec(
		"UPDATE company_workflow_state SET updated_at = updated_at - ? WHERE company_id = ?",
		int64(by.Seconds()), companyID,
	); err != nil {
		t.Fatalf("Failed to backdate workflow: %v", err)
	}
}

// InsertHolding seeds a token purchase.
func InsertHolding(t *testing.T, db *sql.DB, wallet string, agentID int64, tokens int, price float64) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO agent_token_holdings (user_wallet, ceo_agent_id, tokens_owned, purchase_price, purchase_date)
		VALUES (?, ?, ?, ?, ?)
	`, wallet, agentID, tokens, price, time.Now().Unix())
	if err != nil {
		t.Fatalf("Failed to insert holding fixture: %v", err)
	}
}

// InsertIdea seeds an idea and returns its id.
func InsertIdea(t *testing.T, db *sql.DB, title string) int64 {
	t.Helper()

	res, err := db.Exec("INSERT INTO ideas (title, description) VALUES (?, ?)", title, title+" description")
	if err != nil {
		t.Fatalf("Failed to insert idea fixture: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("Failed to read idea fixture id: %v", err)
	}
	return id
}
