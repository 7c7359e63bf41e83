// Package portfolio serves read-only views over the foundry database: table
// counts, agent and company listings, token holdings and per-wallet summaries.
package portfolio

// DefaultIdeaLimit is used when the ideas route gets no usable limit.
const DefaultIdeaLimit = 50

// Stats are row counts for the dashboard.
type Stats struct {
	Agents    int64 `json:"agents"`
	Companies int64 `json:"companies"`
	Holdings  int64 `json:"holdings"`
	Ideas     int64 `json:"ideas"`
}

// AgentRow is an agent as listed by the database browser.
type AgentRow struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	CompanyIdea        string  `json:"company_idea"`
	Description        string  `json:"description"`
	CEOCharacteristics string  `json:"ceo_characteristics"`
	CreatorWallet      *string `json:"creator_wallet"`
	TokenSymbol        string  `json:"token_symbol"`
	TotalTokens        int64   `json:"total_tokens"`
	TokensAvailable    int64   `json:"tokens_available"`
	PricePerToken      float64 `json:"price_per_token"`
	Status             string  `json:"status"`
	CreatedAt          int64   `json:"created_at"`
	UpdatedAt          int64   `json:"updated_at"`
}

// CompanyRow is a company as listed by the database browser.
type CompanyRow struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	CurrentRevenue float64 `json:"current_revenue"`
	LaunchedDate   *int64  `json:"launched_date"`
	CreatedAt      int64   `json:"created_at"`
	CEOAgentName   *string `json:"ceo_agent_name"`
	TokenSymbol    *string `json:"token_symbol"`
}

// HoldingRow is one purchase joined with the agent or company that issued the tokens.
// Agents are removed when they launch, so the company row stands in for them.
type HoldingRow struct {
	ID            int64    `json:"id"`
	UserWallet    string   `json:"user_wallet"`
	AgentID       int64    `json:"ceo_agent_id"`
	TokensOwned   int64    `json:"tokens_owned"`
	PurchasePrice float64  `json:"purchase_price"`
	PurchaseDate  int64    `json:"purchase_date"`
	AgentName     *string  `json:"agent_name"`
	TokenSymbol   *string  `json:"token_symbol"`
	CurrentPrice  *float64 `json:"current_price"`
}

// IdeaRow is a stored idea.
type IdeaRow struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}

// Position is a wallet's aggregate stake in one agent.
type Position struct {
	AgentID          int64   `json:"ceo_agent_id"`
	TokenSymbol      string  `json:"token_symbol"`
	AgentName        string  `json:"agent_name"`
	Tokens           int64   `json:"tokens"`
	Cost             float64 `json:"cost"`
	AvgPurchasePrice float64 `json:"avg_purchase_price"`
	CurrentPrice     float64 `json:"current_price"`
	Value            float64 `json:"value"`
	Weight           float64 `json:"weight"`
}

// WalletSummary aggregates every holding of one wallet.
type WalletSummary struct {
	Wallet           string     `json:"wallet"`
	Positions        []Position `json:"positions"`
	Purchases        int        `json:"purchases"`
	TotalTokens      int64      `json:"total_tokens"`
	TotalCost        float64    `json:"total_cost"`
	CurrentValue     float64    `json:"current_value"`
	AvgPurchasePrice float64    `json:"avg_purchase_price"`
	PriceStdDev      float64    `json:"price_std_dev"`
	Herfindahl       float64    `json:"herfindahl_index"`
	TopWeight        float64    `json:"top_weight"`
}
