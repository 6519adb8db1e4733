package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
	"github.com/hajjtrust/agency-assistant/internal/domain/providers"
	"github.com/hajjtrust/agency-assistant/internal/domain/repositories"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/clients/openai"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/observability"
)

// nodeName identifies one node of the turn graph.
type nodeName string

const (
	nodeStart           nodeName = "START"
	nodeDetectIntent    nodeName = "DETECT_INTENT"
	nodeRespondGreeting nodeName = "RESPOND_GREETING"
	nodeRespondGeneral  nodeName = "RESPOND_GENERAL"
	nodeGenerateQuery   nodeName = "GENERATE_QUERY"
	nodeExecuteQuery    nodeName = "EXECUTE_QUERY"
	nodeSummarize       nodeName = "SUMMARIZE"
	nodeAskForInfo      nodeName = "ASK_FOR_INFO"
	nodeEnd             nodeName = "END"
)

// errNoQuery is the explanatory error string carried when no safe query
// could be produced; it distinguishes the no-query path from a store error.
const errNoQuery = "no safe query could be produced"

// turnNode is one transition function. It receives the state so far and
// returns the updated state plus the next node. Nodes never mutate shared
// state outside the record they return.
type turnNode func(ctx context.Context, state entities.TurnState, window []entities.ContextMessage) (entities.TurnState, nodeName)

// querySynthesizer lets tests inject a stub that returns arbitrary
// candidates; the production implementation is QuerySynthesizer.
type querySynthesizer interface {
	Synthesize(ctx context.Context, utterance entities.Utterance, hints entities.EntityMatchSet, window []entities.ContextMessage) *entities.SynthesisResult
}

// ConversationOrchestrator runs one turn through the fixed graph
// START -> DETECT_INTENT -> one of four branches -> END. Each turn is
// synchronous; the state record is private until the turn completes.
type ConversationOrchestrator struct {
	router      *IntentRouter
	synthesizer querySynthesizer
	matcher     *FuzzyEntityMatcher
	summarizer  *ResultSummarizer
	safety      *QuerySafetyFilter
	repo        repositories.AgencyRepository
	gateway     providers.CompletionGateway
	metrics     *observability.Metrics

	nodes map[nodeName]turnNode
}

// NewConversationOrchestrator wires the turn graph.
func NewConversationOrchestrator(
	router *IntentRouter,
	synthesizer querySynthesizer,
	matcher *FuzzyEntityMatcher,
	summarizer *ResultSummarizer,
	safety *QuerySafetyFilter,
	repo repositories.AgencyRepository,
	gateway providers.CompletionGateway,
	metrics *observability.Metrics,
) *ConversationOrchestrator {
	o := &ConversationOrchestrator{
		router:      router,
		synthesizer: synthesizer,
		matcher:     matcher,
		summarizer:  summarizer,
		safety:      safety,
		repo:        repo,
		gateway:     gateway,
		metrics:     metrics,
	}
	o.nodes = map[nodeName]turnNode{
		nodeStart:           o.start,
		nodeDetectIntent:    o.detectIntent,
		nodeRespondGreeting: o.respondGreeting,
		nodeRespondGeneral:  o.respondGeneral,
		nodeGenerateQuery:   o.generateQuery,
		nodeExecuteQuery:    o.executeQuery,
		nodeSummarize:       o.summarize,
		nodeAskForInfo:      o.askForInfo,
	}
	return o
}

// ProcessTurn runs the graph once for the utterance and returns the terminal
// state. It never returns an error: every failure mode inside the graph maps
// to a localized reply.
func (o *ConversationOrchestrator) ProcessTurn(ctx context.Context, utterance entities.Utterance, window []entities.ContextMessage) entities.TurnState {
	ctx, span := observability.StartSpan(ctx, "orchestrator.process_turn")
	defer span.End()
	start := time.Now()

	state := entities.TurnState{Utterance: utterance}

	current := nodeStart
	for current != nodeEnd {
		node, ok := o.nodes[current]
		if !ok {
			log.Ctx(ctx).Error().Str("node", string(current)).Msg("turn graph reached an unknown node")
			break
		}
		state, current = node(ctx, state, window)
	}

	observability.RecordTurnMetric(ctx, o.metrics, string(state.Intent), time.Since(start))
	log.Ctx(ctx).Info().
		Str("intent", string(state.Intent)).
		Str("language", string(utterance.Language)).
		Int("row_count", state.RowCount).
		Dur("duration", time.Since(start)).
		Msg("turn completed")
	return state
}

func (o *ConversationOrchestrator) start(_ context.Context, state entities.TurnState, _ []entities.ContextMessage) (entities.TurnState, nodeName) {
	return state, nodeDetectIntent
}

// detectIntent labels the utterance and selects exactly one branch.
func (o *ConversationOrchestrator) detectIntent(ctx context.Context, state entities.TurnState, window []entities.ContextMessage) (entities.TurnState, nodeName) {
	result := o.router.Classify(ctx, state.Utterance, window)
	state.Intent = result.Intent
	state.IntentConfidence = result.Confidence
	state.IntentReasoning = result.Reasoning
	state.IsVague = o.router.IsVague(state.Utterance)

	switch {
	case state.Intent == entities.IntentGreeting:
		return state, nodeRespondGreeting
	case state.Intent == entities.IntentNeedsInfo:
		return state, nodeAskForInfo
	case state.Intent == entities.IntentDatabase && state.IsVague:
		// The vagueness check overrides an optimistic DATABASE verdict for
		// utterances too short to name anything.
		return state, nodeAskForInfo
	case state.Intent == entities.IntentDatabase:
		return state, nodeGenerateQuery
	}
	return state, nodeRespondGeneral
}

func (o *ConversationOrchestrator) respondGreeting(ctx context.Context, state entities.TurnState, _ []entities.ContextMessage) (entities.TurnState, nodeName) {
	text, err := o.gateway.Complete(ctx, providers.CompletionRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: openai.GreetingSystemPrompt(state.Utterance.Language)},
			{Role: providers.RoleUser, Content: state.Utterance.Text},
		},
		Shape:       providers.ShapeText,
		Temperature: 0.4,
	})
	if err != nil {
		text = greetingTemplate(state.Utterance.Language)
	}
	state.Reply = entities.GreetingReply{Text: text}
	return state, nodeEnd
}

func (o *ConversationOrchestrator) respondGeneral(ctx context.Context, state entities.TurnState, _ []entities.ContextMessage) (entities.TurnState, nodeName) {
	text, err := o.gateway.Complete(ctx, providers.CompletionRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: openai.GeneralSystemPrompt(state.Utterance.Language)},
			{Role: providers.RoleUser, Content: state.Utterance.Text},
		},
		Shape:       providers.ShapeText,
		Temperature: 0.4,
	})
	if err != nil {
		text = generalFallbackTemplate(state.Utterance.Language)
	}
	state.Reply = entities.GeneralReply{Text: text}
	return state, nodeEnd
}

// generateQuery gathers fuzzy hints, synthesizes a candidate, and gates it.
// A rejected or missing candidate carries forward as a no-query state; the
// graph still proceeds to EXECUTE_QUERY.
func (o *ConversationOrchestrator) generateQuery(ctx context.Context, state entities.TurnState, window []entities.ContextMessage) (entities.TurnState, nodeName) {
	state.EntityHints = o.collectHints(ctx, state.Utterance)

	result := o.synthesizer.Synthesize(ctx, state.Utterance, state.EntityHints, window)
	if result == nil {
		state.QueryError = errNoQuery
		return state, nodeExecuteQuery
	}

	validated, err := o.safety.Validate(result.Query)
	if err != nil {
		// Policy violation, not user error. The rejected SQL stays in logs.
		log.Ctx(ctx).Warn().Err(err).Str("rejected_query", result.Query).Msg("candidate query rejected by safety gate")
		state.QueryError = errNoQuery
		return state, nodeExecuteQuery
	}

	state.Query = validated
	state.QueryParams = result.Params
	state.QueryKind = result.Kind
	state.AppliedFilters = result.Filters
	state.QueryExplanation = result.Explanation
	return state, nodeExecuteQuery
}

// executeQuery runs the gated query. The no-query state passes through as
// zero rows with its explanatory error intact.
func (o *ConversationOrchestrator) executeQuery(ctx context.Context, state entities.TurnState, _ []entities.ContextMessage) (entities.TurnState, nodeName) {
	if state.Query == "" {
		return state, nodeSummarize
	}

	result, err := o.repo.ExecuteSelect(ctx, state.Query, state.QueryParams...)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("query", state.Query).Msg("query execution failed")
		state.QueryError = err.Error()
		return state, nodeSummarize
	}

	state.Rows = result.Rows
	state.Columns = result.Columns
	state.RowCount = result.Count()
	return state, nodeSummarize
}

func (o *ConversationOrchestrator) summarize(ctx context.Context, state entities.TurnState, _ []entities.ContextMessage) (entities.TurnState, nodeName) {
	language := state.Utterance.Language
	switch {
	case state.Query == "" && state.QueryError != "":
		state.Reply = o.summarizer.NoQuery(language)
	case state.QueryError != "":
		state.Reply = o.summarizer.ExecutionError(language)
	case state.RowCount == 0:
		state.Reply = o.summarizer.ZeroResult(language, state.EntityHints)
	default:
		state.Reply = o.summarizer.Summarize(ctx, state.Utterance, state.Rows, state.RowCount)
	}
	return state, nodeEnd
}

func (o *ConversationOrchestrator) askForInfo(ctx context.Context, state entities.TurnState, _ []entities.ContextMessage) (entities.TurnState, nodeName) {
	raw, err := o.gateway.Complete(ctx, providers.CompletionRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: openai.NeedsInfoSystemPrompt(state.Utterance.Language)},
			{Role: providers.RoleUser, Content: state.Utterance.Text},
		},
		Shape:       providers.ShapeJSON,
		Temperature: 0.4,
	})
	if err == nil {
		var reply entities.NeedsInfoReply
		if jsonErr := json.Unmarshal([]byte(raw), &reply); jsonErr == nil && reply.Text != "" {
			state.Reply = reply
			return state, nodeEnd
		}
	}

	state.Reply = needsInfoTemplate(state.Utterance.Language)
	return state, nodeEnd
}

// collectHints degrades to no hints on any repository failure; a broken
// matcher input must never abort the turn.
func (o *ConversationOrchestrator) collectHints(ctx context.Context, utterance entities.Utterance) entities.EntityMatchSet {
	known, err := o.repo.KnownValues(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("known values unavailable, continuing without hints")
		return entities.EntityMatchSet{}
	}
	return o.matcher.Match(utterance.Text, known)
}

func greetingTemplate(language entities.Language) string {
	if language == entities.LanguageArabic {
		return "السلام عليكم! أنا مساعدك للبحث عن شركات الحج المعتمدة. كيف يمكنني مساعدتك؟"
	}
	return "Hello! I can help you find information about authorized Hajj travel agencies. How can I help?"
}

func generalFallbackTemplate(language entities.Language) string {
	if language == entities.LanguageArabic {
		return "عذراً، لا أستطيع الإجابة على هذا السؤال الآن. يمكنني مساعدتك في البحث عن شركات الحج المعتمدة."
	}
	return "Sorry, I cannot answer that right now. I can help you look up authorized Hajj travel agencies."
}

func needsInfoTemplate(language entities.Language) entities.NeedsInfoReply {
	if language == entities.LanguageArabic {
		return entities.NeedsInfoReply{
			Text:        "أحتاج إلى مزيد من التفاصيل للبحث. اذكر اسم الشركة أو المدينة التي تهمك.",
			Suggestions: []string{"هل شركة النور معتمدة؟", "أظهر لي الشركات المعتمدة في مكة"},
			MissingInfo: []string{"اسم الشركة", "المدينة"},
			SampleQuery: "هل شركة الصفا للسفر معتمدة في جدة؟",
		}
	}
	return entities.NeedsInfoReply{
		Text:        "I need a bit more detail to search. Please name the agency or the city you are interested in.",
		Suggestions: []string{"Is Al Safa Travel authorized?", "Show me authorized agencies in Makkah"},
		MissingInfo: []string{"agency name", "city or country"},
		SampleQuery: "Is Al Safa Travel authorized in Jeddah?",
	}
}
