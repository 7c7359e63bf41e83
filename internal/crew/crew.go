// Package crew implements the language-model-backed stage agents: researcher,
// product manager, CMO, CTO and head of engineering.
//
// Every agent degrades to canned content when the model is unavailable or
// returns something unusable. Canned payloads carry Fallback=true so the
// workflow can advance while the output stays distinguishable. Only context
// cancellation is returned as an error.
package crew

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aristath/foundry/internal/clients/llm"
	"github.com/aristath/foundry/internal/domain"
	"github.com/rs/zerolog"
)

// Completer turns a prompt into model text. *llm.Client implements it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// agent holds what every crew member shares.
type agent struct {
	name string
	llm  Completer
	log  zerolog.Logger
}

func newAgent(name string, completer Completer, log zerolog.Logger) agent {
	return agent{
		name: name,
		llm:  completer,
		log:  log.With().Str("component", "crew").Str("agent", name).Logger(),
	}
}

// ask sends prompt and decodes the JSON object in the reply into dst, which
// must then pass validation.
func (a agent) ask(ctx context.Context, prompt string, dst domain.Validator) error {
	text, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return err
	}
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return dst.Validate()
}

// degrade decides between returning the caller's error and using fallback content.
func (a agent) degrade(ctx context.Context, err error, what string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	a.log.Warn().Err(err).Msgf("Using fallback %s", what)
	return nil
}

// Crew bundles one of each agent over a shared completer.
type Crew struct {
	Researcher  *Researcher
	Product     *ProductManager
	CMO         *CMO
	CTO         *CTO
	Engineering *HeadOfEngineering
}

// New creates the full crew.
func New(completer Completer, log zerolog.Logger) *Crew {
	return &Crew{
		Researcher:  NewResearcher(completer, log),
		Product:     NewProductManager(completer, log),
		CMO:         NewCMO(completer, log),
		CTO:         NewCTO(completer, log),
		Engineering: NewHeadOfEngineering(completer, log),
	}
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
