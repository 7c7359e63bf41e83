package marketing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aristath/foundry/internal/clients/social"
	"github.com/aristath/foundry/internal/crew"
	"github.com/aristath/foundry/internal/domain"
	"github.com/aristath/foundry/internal/events"
	"github.com/rs/zerolog"
)

// ListLimit caps the activity and post listings.
const ListLimit = 50

// Strategist writes marketing strategies. *crew.CMO implements it.
type Strategist interface {
	Strategy(ctx context.Context, idea domain.Idea, product *domain.ProductData, research *domain.ResearchData) (*domain.MarketingStrategy, error)
	Name() string
}

// Researcher enriches ad-hoc strategy requests. *crew.Researcher implements it.
type Researcher interface {
	Research(ctx context.Context, idea domain.Idea) (*domain.ResearchData, error)
}

// Poster publishes social posts. *social.Client implements it.
type Poster interface {
	Post(ctx context.Context, req social.PostRequest) (*social.PostResponse, error)
}

// Store is the persistence the service needs. *Repository implements it.
type Store interface {
	InsertPost(ctx context.Context, p Post) (int64, error)
	ListPosts(ctx context.Context, limit int) ([]Post, error)
	LogActivity(ctx context.Context, agentName, activity string, data any) error
	ListActivities(ctx context.Context, limit int) ([]Activity, error)
	CreatePDR(ctx context.Context, idea domain.Idea, product *domain.ProductData) (int64, error)
	GetPDR(ctx context.Context, id int64) (*PDR, error)
	ApprovePDR(ctx context.Context, id int64) error
	RecordPDRMarketing(ctx context.Context, id int64, response any) error
}

// EventEmitter publishes domain events.
type EventEmitter interface {
	EmitTyped(module string, data events.EventData)
}

// Service runs marketing and manages PDRs.
type Service struct {
	store      Store
	strategist Strategist
	researcher Researcher
	poster     Poster
	events     EventEmitter
	log        zerolog.Logger
}

// NewService creates a marketing service. events may be nil.
func NewService(store Store, strategist Strategist, researcher Researcher, poster Poster, events EventEmitter, log zerolog.Logger) *Service {
	return &Service{
		store:      store,
		strategist: strategist,
		researcher: researcher,
		poster:     poster,
		events:     events,
		log:        log.With().Str("service", "marketing").Logger(),
	}
}

// RunMarketing writes the strategy and, when in.Publish is set, posts it to
// Twitter and LinkedIn. Post failures are recorded on the strategy, never returned.
func (s *Service) RunMarketing(ctx context.Context, in domain.MarketingInput) (*domain.MarketingStrategy, error) {
	product := in.Product
	if product == nil {
		product = crew.FallbackProduct(in.Idea)
	}

	strategy, err := s.strategist.Strategy(ctx, in.Idea, product, in.Research)
	if err != nil {
		return nil, fmt.Errorf("failed to build marketing strategy: %w", err)
	}
	if !in.Publish {
		return strategy, nil
	}

	twitter := strategy.PostTextTwitter
	if twitter == "" {
		twitter = fmt.Sprintf("%s - %s", product.ProductName, product.Tagline)
	}
	linkedIn := strategy.PostTextLinkedIn
	if linkedIn == "" {
		linkedIn = fmt.Sprintf("Introducing %s: %s\n\n%s", product.ProductName, product.Tagline, product.Description)
	}

	strategy.Posts = []domain.PostResult{
		s.publish(ctx, PlatformTwitter, twitter, in.LinkID),
		s.publish(ctx, PlatformLinkedIn, linkedIn, in.LinkID),
	}
	return strategy, nil
}

func (s *Service) publish(ctx context.Context, platform, text string, linkID *int64) domain.PostResult {
	agent := s.strategist.Name()
	result := domain.PostResult{Platform: platform}
	post := Post{
		IdeaID:    linkID,
		AgentName: agent,
		Content:   text,
		Platforms: []string{platform},
	}

	resp, err := s.poster.Post(ctx, social.PostRequest{Text: text, Platforms: []string{platform}})
	if err != nil {
		s.log.Warn().Err(err).Str("platform", platform).Msg("Social post failed")
		result.Error = err.Error()
		post.Status = PostFailed
		post.Response, _ = json.Marshal(map[string]string{"error": err.Error()})
	} else {
		result.Success = true
		result.RemoteID = resp.ID
		result.Simulated = resp.Simulated
		post.Status = PostPublished
		post.Response = resp.Raw
		if len(post.Response) == 0 {
			post.Response, _ = json.Marshal(resp)
		}
		if err := s.store.LogActivity(ctx, agent, "Posted to "+platform, map[string]any{
			"text": text,
			"resp": resp,
		}); err != nil {
			s.log.Error().Err(err).Str("platform", platform).Msg("Failed to log post activity")
		}
	}

	id, err := s.store.InsertPost(ctx, post)
	if err != nil {
		s.log.Error().Err(err).Str("platform", platform).Msg("Failed to store post")
	}
	result.PostID = id

	if s.events != nil {
		s.events.EmitTyped("marketing", &events.PostPublishedData{
			PostID:    id,
			Platforms: post.Platforms,
			Status:    post.Status,
			Simulated: result.Simulated,
		})
	}
	return result
}

// GenerateStrategy serves ad-hoc strategy requests: it researches the idea
// first, then runs marketing.
func (s *Service) GenerateStrategy(ctx context.Context, req StrategyRequest) (*domain.MarketingStrategy, error) {
	if !req.Valid() {
		return nil, fmt.Errorf("%w: idea and product data are required", domain.ErrInvalidPayload)
	}

	research, err := s.researcher.Research(ctx, *req.Idea)
	if err != nil {
		return nil, fmt.Errorf("failed to research idea: %w", err)
	}

	return s.RunMarketing(ctx, domain.MarketingInput{
		Idea:     *req.Idea,
		Product:  req.ProductData,
		Research: research,
		Publish:  req.ShouldPublish(),
	})
}

// CreatePDR stores a draft PDR.
func (s *Service) CreatePDR(ctx context.Context, idea domain.Idea, product *domain.ProductData) (int64, error) {
	if err := idea.Validate(); err != nil {
		return 0, err
	}
	return s.store.CreatePDR(ctx, idea, product)
}

// GetPDR loads a PDR.
func (s *Service) GetPDR(ctx context.Context, id int64) (*PDR, error) {
	return s.store.GetPDR(ctx, id)
}

// ApprovePDR approves a draft PDR, researches its idea and runs marketing for
// it with publishing on. A PDR that is already approved returns
// ErrPDRAlreadyApproved. A research failure does not undo the approval; the
// strategy is written without research instead.
func (s *Service) ApprovePDR(ctx context.Context, id int64) (*Approval, error) {
	if err := s.store.ApprovePDR(ctx, id); err != nil {
		return nil, err
	}

	pdr, err := s.store.GetPDR(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.EmitTyped("marketing", &events.PDRApprovedData{PDRID: id})
	}

	research, err := s.researcher.Research(ctx, pdr.Idea)
	if err != nil {
		s.log.Warn().Err(err).Int64("pdr_id", id).Msg("Research failed, writing strategy without it")
		research = nil
	}

	strategy, err := s.RunMarketing(ctx, domain.MarketingInput{
		Idea:     pdr.Idea,
		Product:  pdr.Product,
		Research: research,
		Publish:  true,
		LinkID:   &id,
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.RecordPDRMarketing(ctx, id, strategy.Posts); err != nil {
		return nil, err
	}

	s.log.Info().Int64("pdr_id", id).Int("posts", len(strategy.Posts)).Msg("PDR approved")
	return &Approval{Strategy: strategy, Posts: strategy.Posts}, nil
}

// BoltPrompt returns the template website brief for a request.
func (s *Service) BoltPrompt(req BoltPromptRequest) *domain.BoltPrompt {
	return crew.StaticBoltPrompt(req.ProductName())
}

// Activities returns the latest activity log entries.
func (s *Service) Activities(ctx context.Context) ([]Activity, error) {
	return s.store.ListActivities(ctx, ListLimit)
}

// Posts returns the latest posts.
func (s *Service) Posts(ctx context.Context) ([]Post, error) {
	return s.store.ListPosts(ctx, ListLimit)
}

// IsClientError reports whether err came from bad input rather than a failure.
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrInvalidPayload)
}
