package events

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// AgentCreatedData contains data for AgentCreated events
type AgentCreatedData struct {
	AgentID     int64  `json:"agent_id"`
	Name        string `json:"name"`
	TokenSymbol string `json:"token_symbol"`
	LaunchDate  int64  `json:"launch_date"`
}

// EventType returns the event type for AgentCreatedData
func (d *AgentCreatedData) EventType() EventType { return AgentCreated }

// TokensPurchasedData contains data for TokensPurchased events
type TokensPurchasedData struct {
	AgentID         int64   `json:"agent_id"`
	Wallet          string  `json:"wallet"`
	Tokens          int     `json:"tokens"`
	TotalCost       float64 `json:"total_cost"`
	TokensAvailable int     `json:"tokens_available"`
}

// EventType returns the event type for TokensPurchasedData
func (d *TokensPurchasedData) EventType() EventType { return TokensPurchased }

// CompanyLaunchedData contains data for CompanyLaunched events
type CompanyLaunchedData struct {
	CompanyID int64  `json:"company_id"`
	AgentID   int64  `json:"agent_id"`
	Name      string `json:"name"`
}

// EventType returns the event type for CompanyLaunchedData
func (d *CompanyLaunchedData) EventType() EventType { return CompanyLaunched }

// WorkflowStepChangedData contains data for WorkflowStepChanged events
type WorkflowStepChangedData struct {
	CompanyID int64  `json:"company_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Status    string `json:"status"`
	Fallback  bool   `json:"fallback,omitempty"`
}

// EventType returns the event type for WorkflowStepChangedData
func (d *WorkflowStepChangedData) EventType() EventType { return WorkflowStepChanged }

// WorkflowFailedData contains data for WorkflowFailed events
type WorkflowFailedData struct {
	CompanyID int64  `json:"company_id"`
	Step      string `json:"step"`
	Error     string `json:"error"`
}

// EventType returns the event type for WorkflowFailedData
func (d *WorkflowFailedData) EventType() EventType { return WorkflowFailed }

// VoteRecordedData contains data for VoteRecorded events
type VoteRecordedData struct {
	CompanyID int64  `json:"company_id"`
	Vote      string `json:"vote"`
	VoterID   string `json:"voter_id"`
}

// EventType returns the event type for VoteRecordedData
func (d *VoteRecordedData) EventType() EventType { return VoteRecorded }

// PostPublishedData contains data for PostPublished events
type PostPublishedData struct {
	PostID    int64    `json:"post_id"`
	Platforms []string `json:"platforms"`
	Status    string   `json:"status"`
	Simulated bool     `json:"simulated"`
}

// EventType returns the event type for PostPublishedData
func (d *PostPublishedData) EventType() EventType { return PostPublished }

// PDRApprovedData contains data for PDRApproved events
type PDRApprovedData struct {
	PDRID int64 `json:"pdr_id"`
}

// EventType returns the event type for PDRApprovedData
func (d *PDRApprovedData) EventType() EventType { return PDRApproved }

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Key       string `json:"key"`
	SizeBytes int64  `json:"size_bytes"`
	Rotated   int    `json:"rotated"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType { return BackupCompleted }

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType { return ErrorOccurred }
