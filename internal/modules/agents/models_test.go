package agents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestCreateAgentRequest_Validate(t *testing.T) {
	base := CreateAgentRequest{
		Name: "n", CompanyIdea: "i", Description: "d", CEOCharacteristics: "c", TokenSymbol: "s",
	}

	tests := []struct {
		name    string
		mutate  func(r *CreateAgentRequest)
		wantErr bool
	}{
		{"valid", func(r *CreateAgentRequest) {}, false},
		{"missing name", func(r *CreateAgentRequest) { r.Name = " " }, true},
		{"missing symbol", func(r *CreateAgentRequest) { r.TokenSymbol = "" }, true},
		{"zero supply", func(r *CreateAgentRequest) { r.TotalTokens = intPtr(0) }, true},
		{"negative timeline", func(r *CreateAgentRequest) { r.LaunchTimeline = intPtr(-1) }, true},
		{"immediate launch", func(r *CreateAgentRequest) { r.LaunchTimeline = intPtr(0) }, false},
		{"longest timeline", func(r *CreateAgentRequest) { r.LaunchTimeline = intPtr(MaxLaunchTimeline) }, false},
		{"timeline past a century", func(r *CreateAgentRequest) { r.LaunchTimeline = intPtr(200000000) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			if tt.wantErr {
				assert.Error(t, req.Validate())
			} else {
				assert.NoError(t, req.Validate())
			}
		})
	}
}

func TestCreateAgentRequest_ToAgentDefaults(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	agent := CreateAgentRequest{Name: " Ada ", TokenSymbol: "ada"}.ToAgent(now)

	assert.Equal(t, "Ada", agent.Name)
	assert.Equal(t, "ADA", agent.TokenSymbol)
	assert.Equal(t, DefaultTotalTokens, agent.TotalTokens)
	assert.Equal(t, DefaultTotalTokens, agent.TokensAvailable)
	assert.Equal(t, DefaultPricePerToken, agent.PricePerToken)
	assert.Equal(t, DefaultLaunchTimeline, agent.LaunchTimeline)
	assert.Equal(t, DefaultLaunchTimeline, agent.TimeDuration)
	assert.Equal(t, now.Add(10*time.Minute).Unix(), *agent.LaunchDate)

	immediate := CreateAgentRequest{Name: "b", TokenSymbol: "b", LaunchTimeline: intPtr(0)}.ToAgent(now)
	assert.Equal(t, now.Unix(), *immediate.LaunchDate)
}

func TestCreateAgentRequest_LongestTimelineStaysInFuture(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	agent := CreateAgentRequest{Name: "n", TokenSymbol: "s", LaunchTimeline: intPtr(MaxLaunchTimeline)}.ToAgent(now)
	assert.Greater(t, *agent.LaunchDate, now.Unix())

	req := CreateAgentRequest{
		Name: "n", CompanyIdea: "i", Description: "d", CEOCharacteristics: "c", TokenSymbol: "s",
		LaunchTimeline: intPtr(200000000),
	}
	var verr *ValidationError
	assert.ErrorAs(t, req.Validate(), &verr)
}

func TestInsufficientTokensError(t *testing.T) {
	err := &InsufficientTokensError{Available: 3}
	assert.Equal(t, "not enough tokens available: 3 left", err.Error())
}
