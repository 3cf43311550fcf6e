package assist

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/whuclubsynapse/synapse-ai/internal/api"
	"github.com/whuclubsynapse/synapse-ai/internal/extract"
	"github.com/whuclubsynapse/synapse-ai/internal/relay"
	"go.uber.org/zap"
)

// IntroductionRequest asks for a club introduction text.
type IntroductionRequest struct {
	Content      string `json:"content,omitempty"`
	Style        string `json:"style,omitempty"`
	TargetPeople string `json:"target_people,omitempty"`
}

// SloganRequest asks for a club slogan.
type SloganRequest struct {
	Content     string `json:"content,omitempty"`
	Style       string `json:"style,omitempty"`
	Expectation string `json:"expectation,omitempty"`
}

// GeneratedTextResponse carries a single generated text.
type GeneratedTextResponse struct {
	GeneratedText string `json:"generated_text"`
}

// EventPlanRequest asks for an event plan draft.
type EventPlanRequest struct {
	ClubName  string `json:"club_name"`
	EventType string `json:"event_type,omitempty"`
	Goals     string `json:"goals,omitempty"`
}

// EventPlanResponse is a structured event plan.
type EventPlanResponse struct {
	Title     string   `json:"title"`
	Plan      string   `json:"plan"`
	Checklist []string `json:"checklist,omitempty"`
}

// AtmosphereRequest asks for an analysis of a group-chat excerpt.
type AtmosphereRequest struct {
	CommunicationContent string `json:"communication_content"`
}

// AtmosphereResponse summarizes a club's communication culture.
type AtmosphereResponse struct {
	AtmosphereTags []string `json:"atmosphere_tags"`
	CultureSummary string   `json:"culture_summary"`
}

// ApplicantData describes a membership applicant.
type ApplicantData struct {
	Name       string   `json:"name"`
	Major      string   `json:"major,omitempty"`
	Skills     []string `json:"skills,omitempty"`
	Experience string   `json:"experience,omitempty"`
}

// ScreeningRequest asks for a review of a membership application.
type ScreeningRequest struct {
	ApplicantData      ApplicantData `json:"applicant_data"`
	ApplicationReason  string        `json:"application_reason"`
	RequiredConditions []string      `json:"required_conditions,omitempty"`
	ClubName           string        `json:"club_name"`
}

// ScreeningResponse is the reviewer-facing assessment.
type ScreeningResponse struct {
	Summary    string `json:"summary"`
	Suggestion string `json:"suggestion"`
}

// RecommendationRequest asks for a ranking of candidate clubs.
type RecommendationRequest struct {
	Interests      []string `json:"interests"`
	CandidateClubs []string `json:"candidate_clubs"`
}

// RecommendationResponse ranks candidate clubs for a student.
type RecommendationResponse struct {
	Recommendations []string `json:"recommendations"`
	Reason          string   `json:"reason"`
}

// Handler provides the generation feature endpoints.
type Handler struct {
	engine *relay.Engine
	logger *zap.Logger
}

// NewHandler creates an assist Handler over the shared chat engine.
func NewHandler(engine *relay.Engine, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// RegisterRoutes registers the generation feature routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /generate/introduction", h.handleIntroduction)
	mux.HandleFunc("POST /generate/slogan", h.handleSlogan)
	mux.HandleFunc("POST /generate/eventplan", h.handleEventPlan)
	mux.HandleFunc("POST /generate/atmosphere", h.handleAtmosphere)
	mux.HandleFunc("POST /generate/screening", h.handleScreening)
	mux.HandleFunc("POST /generate/recommendation", h.handleRecommendation)
}

// generate runs one feature round-trip: prompt the model, extract the JSON
// object, validate it against the feature schema.
func (h *Handler) generate(ctx context.Context, systemPrompt, userPrompt string, schema extract.Schema) (extract.Object, error) {
	raw, err := h.engine.CompleteText(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	obj, err := extract.Extract(raw, schema)
	if err != nil {
		h.logger.Warn("model output failed extraction",
			zap.Error(err),
			zap.Int("raw_len", len(raw)))
		return nil, err
	}
	return obj, nil
}

func (h *Handler) handleIntroduction(w http.ResponseWriter, r *http.Request) {
	var req IntroductionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON body: "+err.Error(), r.URL.Path)
		return
	}

	obj, err := h.generate(r.Context(), introductionSystem, introductionPrompt(req), generatedTextSchema)
	if err != nil {
		api.WriteError(w, err, r.URL.Path)
		return
	}
	api.RespondJSON(w, http.StatusOK, GeneratedTextResponse{GeneratedText: obj.String("generated_text")})
}

func (h *Handler) handleSlogan(w http.ResponseWriter, r *http.Request) {
	var req SloganRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON body: "+err.Error(), r.URL.Path)
		return
	}

	obj, err := h.generate(r.Context(), sloganSystem, sloganPrompt(req), generatedTextSchema)
	if err != nil {
		api.WriteError(w, err, r.URL.Path)
		return
	}
	api.RespondJSON(w, http.StatusOK, GeneratedTextResponse{GeneratedText: obj.String("generated_text")})
}

func (h *Handler) handleEventPlan(w http.ResponseWriter, r *http.Request) {
	var req EventPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON body: "+err.Error(), r.URL.Path)
		return
	}
	if req.ClubName == "" {
		api.BadRequest(w, "club_name is required", r.URL.Path)
		return
	}

	obj, err := h.generate(r.Context(), eventPlanSystem, eventPlanPrompt(req), eventPlanSchema)
	if err != nil {
		api.WriteError(w, err, r.URL.Path)
		return
	}
	api.RespondJSON(w, http.StatusOK, EventPlanResponse{
		Title:     obj.String("title"),
		Plan:      obj.String("plan"),
		Checklist: obj.StringList("checklist"),
	})
}

func (h *Handler) handleAtmosphere(w http.ResponseWriter, r *http.Request) {
	var req AtmosphereRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON body: "+err.Error(), r.URL.Path)
		return
	}
	if req.CommunicationContent == "" {
		api.BadRequest(w, "communication_content is required", r.URL.Path)
		return
	}

	obj, err := h.generate(r.Context(), atmosphereSystem, atmospherePrompt(req), atmosphereSchema)
	if err != nil {
		api.WriteError(w, err, r.URL.Path)
		return
	}
	api.RespondJSON(w, http.StatusOK, AtmosphereResponse{
		AtmosphereTags: obj.StringList("atmosphere_tags"),
		CultureSummary: obj.String("culture_summary"),
	})
}

func (h *Handler) handleScreening(w http.ResponseWriter, r *http.Request) {
	var req ScreeningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON body: "+err.Error(), r.URL.Path)
		return
	}
	if req.ClubName == "" || req.ApplicantData.Name == "" || req.ApplicationReason == "" {
		api.BadRequest(w, "club_name, applicant_data.name and application_reason are required", r.URL.Path)
		return
	}

	obj, err := h.generate(r.Context(), screeningSystem, screeningPrompt(req), screeningSchema)
	if err != nil {
		api.WriteError(w, err, r.URL.Path)
		return
	}
	api.RespondJSON(w, http.StatusOK, ScreeningResponse{
		Summary:    obj.String("summary"),
		Suggestion: obj.String("suggestion"),
	})
}

func (h *Handler) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON body: "+err.Error(), r.URL.Path)
		return
	}
	if len(req.Interests) == 0 {
		api.BadRequest(w, "interests must not be empty", r.URL.Path)
		return
	}
	if len(req.CandidateClubs) == 0 {
		api.BadRequest(w, "candidate_clubs must not be empty", r.URL.Path)
		return
	}

	obj, err := h.generate(r.Context(), recommendationSystem, recommendationPrompt(req), recommendationSchema)
	if err != nil {
		api.WriteError(w, err, r.URL.Path)
		return
	}
	api.RespondJSON(w, http.StatusOK, RecommendationResponse{
		Recommendations: obj.StringList("recommendations"),
		Reason:          obj.String("reason"),
	})
}
