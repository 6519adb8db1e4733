package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
	"github.com/hajjtrust/agency-assistant/internal/domain/providers"
	"github.com/hajjtrust/agency-assistant/internal/domain/repositories"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/clients/openai"
)

// skipWord lets the user leave contact info out of a report.
const skipWord = "skip"

// reportState is the partial intake persisted between steps.
type reportState struct {
	Step   entities.ReportStep      `json:"step"`
	Report entities.ComplaintReport `json:"report"`
}

// ReportStepResult is what the intake returns after each answer: the prompt
// for the next input (or the closing confirmation) and whether the flow
// finished this turn.
type ReportStepResult struct {
	Prompt    string
	Step      entities.ReportStep
	Completed bool
	ReportID  string
}

// ReportService drives the linear complaint-intake flow: agency name, city,
// details, then contact info or skip. Each answer is validated before the
// flow advances; an unusable answer repeats the step with feedback.
type ReportService struct {
	repo       repositories.ReportRepository
	cache      providers.CacheProvider
	gateway    providers.CompletionGateway
	ttlSeconds int
}

// NewReportService creates the intake service.
func NewReportService(repo repositories.ReportRepository, cache providers.CacheProvider, gateway providers.CompletionGateway, ttlSeconds int) *ReportService {
	if ttlSeconds <= 0 {
		ttlSeconds = 3600
	}
	return &ReportService{repo: repo, cache: cache, gateway: gateway, ttlSeconds: ttlSeconds}
}

func reportKey(sessionID string) string {
	return fmt.Sprintf("session:%s:report", sessionID)
}

// Advance feeds one user answer into the flow. A session with no saved state
// starts at the first step; its first answer is the agency name.
func (s *ReportService) Advance(ctx context.Context, sessionID, answer string, language entities.Language) (*ReportStepResult, error) {
	state := s.loadState(ctx, sessionID)
	if state == nil {
		state = &reportState{
			Step: entities.StepAgencyName,
			Report: entities.ComplaintReport{
				SessionID: sessionID,
				Language:  language,
			},
		}
	}

	answer = strings.TrimSpace(answer)
	if ok, feedback := s.validate(ctx, state.Step, answer, language); !ok {
		return &ReportStepResult{Prompt: feedback, Step: state.Step}, nil
	}

	switch state.Step {
	case entities.StepAgencyName:
		state.Report.AgencyName = answer
	case entities.StepCity:
		state.Report.City = answer
	case entities.StepDetails:
		state.Report.Details = answer
	case entities.StepContact:
		if !strings.EqualFold(answer, skipWord) {
			state.Report.ContactInfo = answer
		}
	}

	if state.Step == entities.StepContact {
		if err := s.repo.Create(ctx, &state.Report); err != nil {
			return nil, err
		}
		s.clearState(ctx, sessionID)
		return &ReportStepResult{
			Prompt:    closingMessage(language, state.Report.ID),
			Step:      entities.StepDone,
			Completed: true,
			ReportID:  state.Report.ID,
		}, nil
	}

	state.Step++
	s.saveState(ctx, sessionID, state)
	return &ReportStepResult{Prompt: stepPrompt(state.Step, language), Step: state.Step}, nil
}

// Start begins a fresh intake, discarding any earlier partial state.
func (s *ReportService) Start(ctx context.Context, sessionID string, language entities.Language) *ReportStepResult {
	s.clearState(ctx, sessionID)
	s.saveState(ctx, sessionID, &reportState{
		Step: entities.StepAgencyName,
		Report: entities.ComplaintReport{
			SessionID: sessionID,
			Language:  language,
		},
	})
	return &ReportStepResult{Prompt: stepPrompt(entities.StepAgencyName, language), Step: entities.StepAgencyName}
}

// InProgress reports whether the session has a partial intake.
func (s *ReportService) InProgress(ctx context.Context, sessionID string) bool {
	return s.loadState(ctx, sessionID) != nil
}

type validationEnvelope struct {
	IsValid  bool   `json:"is_valid"`
	Feedback string `json:"feedback"`
}

// validate asks the model whether the answer fits the step. Gateway failure
// degrades to a minimal local check so the flow never stalls.
func (s *ReportService) validate(ctx context.Context, step entities.ReportStep, answer string, language entities.Language) (bool, string) {
	if answer == "" {
		return false, emptyAnswerFeedback(step, language)
	}
	if step == entities.StepContact && strings.EqualFold(answer, skipWord) {
		return true, ""
	}

	raw, err := s.gateway.Complete(ctx, providers.CompletionRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: openai.ReportStepSystemPrompt(step, language)},
			{Role: providers.RoleUser, Content: answer},
		},
		Shape:       providers.ShapeJSON,
		Temperature: 0,
	})
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("report validation degraded to local check")
		return s.localValidate(step, answer, language)
	}

	var envelope validationEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return s.localValidate(step, answer, language)
	}
	if !envelope.IsValid {
		feedback := envelope.Feedback
		if feedback == "" {
			feedback = emptyAnswerFeedback(step, language)
		}
		return false, feedback
	}
	return true, ""
}

// localValidate applies length floors only; the model does the nuanced
// checks when available.
func (s *ReportService) localValidate(step entities.ReportStep, answer string, language entities.Language) (bool, string) {
	min := 2
	if step == entities.StepDetails {
		min = 10
	}
	if len([]rune(answer)) < min {
		return false, emptyAnswerFeedback(step, language)
	}
	return true, ""
}

func (s *ReportService) loadState(ctx context.Context, sessionID string) *reportState {
	raw, err := s.cache.Get(ctx, reportKey(sessionID))
	if err != nil {
		return nil
	}
	var state reportState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil
	}
	return &state
}

func (s *ReportService) saveState(ctx context.Context, sessionID string, state *reportState) {
	raw, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, reportKey(sessionID), raw, s.ttlSeconds); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("failed to persist report state")
	}
}

func (s *ReportService) clearState(ctx context.Context, sessionID string) {
	if err := s.cache.Delete(ctx, reportKey(sessionID)); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("failed to clear report state")
	}
}

func stepPrompt(step entities.ReportStep, language entities.Language) string {
	arabic := language == entities.LanguageArabic
	switch step {
	case entities.StepAgencyName:
		if arabic {
			return "ما اسم شركة الحج التي تريد الإبلاغ عنها؟"
		}
		return "What is the name of the Hajj agency you want to report?"
	case entities.StepCity:
		if arabic {
			return "في أي مدينة تقع هذه الشركة؟"
		}
		return "Which city is this agency located in?"
	case entities.StepDetails:
		if arabic {
			return "صف المشكلة التي واجهتها مع هذه الشركة."
		}
		return "Please describe the problem you experienced with this agency."
	case entities.StepContact:
		if arabic {
			return "اترك بريدك الإلكتروني أو رقم هاتفك للمتابعة، أو اكتب \"skip\" للإبلاغ دون اسم."
		}
		return "Leave an email or phone number for follow-up, or type \"skip\" to report anonymously."
	}
	return ""
}

func closingMessage(language entities.Language, reportID string) string {
	if language == entities.LanguageArabic {
		return fmt.Sprintf("تم تسجيل بلاغك برقم %s. شكراً لمساعدتك في حماية الحجاج.", reportID)
	}
	return fmt.Sprintf("Your report has been filed with reference %s. Thank you for helping protect pilgrims.", reportID)
}

func emptyAnswerFeedback(step entities.ReportStep, language entities.Language) string {
	if language == entities.LanguageArabic {
		switch step {
		case entities.StepAgencyName:
			return "أحتاج إلى اسم الشركة للمتابعة."
		case entities.StepCity:
			return "أحتاج إلى اسم المدينة للمتابعة."
		case entities.StepDetails:
			return "صف المشكلة ببضع جمل حتى أتمكن من تسجيل البلاغ."
		case entities.StepContact:
			return "اترك وسيلة تواصل أو اكتب \"skip\"."
		}
		return "أحتاج إلى إجابة للمتابعة."
	}
	switch step {
	case entities.StepAgencyName:
		return "I need the agency name to continue."
	case entities.StepCity:
		return "I need the city name to continue."
	case entities.StepDetails:
		return "Please describe the problem in a few sentences so I can file the report."
	case entities.StepContact:
		return "Please leave a contact method or type \"skip\"."
	}
	return "I need an answer to continue."
}
