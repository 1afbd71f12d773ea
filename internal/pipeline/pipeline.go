package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/replyforge/replyforge/internal/llm"
	"github.com/replyforge/replyforge/internal/store"
	"github.com/replyforge/replyforge/internal/util"
)

// fallbackApology is emitted as displayable text when reply generation fails.
const fallbackApology = "We apologize, but we are unable to process your request right now. Our team has been notified and will respond to your email shortly."

// Orchestrator owns the per-run state record and sequences the pipeline
// stages. Collaborators are injected at construction so tests can substitute
// doubles.
type Orchestrator struct {
	classifier *Classifier
	retriever  *ContextRetriever
	generator  *ResponseGenerator
	log        zerolog.Logger
}

// New wires an orchestrator from its external collaborators.
func New(gen llm.Generator, policies store.PolicyStore, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		classifier: NewClassifier(gen),
		retriever:  NewContextRetriever(policies, log),
		generator:  NewResponseGenerator(gen),
		log:        log.With().Str("component", "pipeline").Logger(),
	}
}

// WithClassifier swaps the classification stage, e.g. to opt into strict
// parsing of model output.
func (o *Orchestrator) WithClassifier(c *Classifier) *Orchestrator {
	o.classifier = c
	return o
}

// Run processes one email to a terminal result. It never returns an error;
// failures are reported through the result's Success and Err fields.
func (o *Orchestrator) Run(ctx context.Context, email string) Result {
	res, _ := o.Execute(ctx, email)
	return res
}

// Execute is Run with the terminal stage error exposed, for callers that need
// to make retry decisions (the batch worker pool).
func (o *Orchestrator) Execute(ctx context.Context, email string) (Result, error) {
	st := &State{
		RunID:        uuid.NewString(),
		EmailContent: email,
		Stage:        StageStart,
	}
	log := o.log.With().Str("run_id", st.RunID).Logger()

	cls, err := o.classifier.Classify(ctx, email)
	if err != nil {
		return o.fail(log, st, err)
	}
	st.Classification = &cls
	st.Stage = StageClassified
	log.Info().
		Str("stage", string(st.Stage)).
		Str("query_type", string(cls.QueryType)).
		Float64("confidence", cls.Confidence).
		Bool("requires_lookup", cls.RequiresLookup).
		Msg("email classified")

	// The lookup flag is the gate; the query type only selects which facts
	// to fetch once the gate is open.
	if cls.RequiresLookup {
		st.Context = o.retriever.Retrieve(ctx, cls)
		st.Stage = StageContextRetrieved
		log.Info().
			Str("stage", string(st.Stage)).
			Int("facts", len(st.Context)).
			Msg("context retrieved")
	}

	reply, err := o.generator.Generate(ctx, email, st.Context)
	if err != nil {
		// Seed displayable text so callers always have something to show.
		st.FinalText = fallbackApology
		return o.fail(log, st, err)
	}
	st.Reply = &reply
	st.Stage = StageGenerated
	log.Info().
		Str("stage", string(st.Stage)).
		Int("reply_length", len(reply.FullText)).
		Msg("reply generated")

	verdict := Validate(reply)
	st.Validation = &verdict
	st.Stage = StageValidated
	log.Info().
		Str("stage", string(st.Stage)).
		Bool("is_valid", verdict.IsValid).
		Int("issues", len(verdict.Issues)).
		Msg("reply validated")

	st.FinalText = reply.FullText
	st.Stage = StageDone

	return Result{
		Success:        true,
		ResponseText:   st.FinalText,
		Classification: st.Classification,
		Validation:     st.Validation,
	}, nil
}

func (o *Orchestrator) fail(log zerolog.Logger, st *State, err error) (Result, error) {
	st.Err = util.RedactSecrets(err.Error())
	st.Stage = StageFailed
	log.Error().
		Str("stage", string(st.Stage)).
		Str("error", st.Err).
		Msg("pipeline run failed")

	return Result{
		Success:        false,
		ResponseText:   st.FinalText,
		Classification: st.Classification,
		Err:            st.Err,
	}, err
}
