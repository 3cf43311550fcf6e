package assist

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/whuclubsynapse/synapse-ai/internal/relay"
	"github.com/whuclubsynapse/synapse-ai/pkg/llm/llmtest"
	"go.uber.org/zap"
)

func newTestMux(stub *llmtest.StubProvider) *http.ServeMux {
	engine := relay.NewEngine(stub, relay.DefaultDefaults(), zap.NewNop())
	mux := http.NewServeMux()
	NewHandler(engine, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func post(t *testing.T, mux *http.ServeMux, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHandleIntroduction_FencedOutput(t *testing.T) {
	stub := &llmtest.StubProvider{
		Content: "```json\n{\"generated_text\":\"Welcome to the Hiking Club!\"}\n```",
	}
	w := post(t, newTestMux(stub), "/generate/introduction",
		`{"content":"a hiking club","style":"warm","target_people":"freshmen"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp GeneratedTextResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.GeneratedText != "Welcome to the Hiking Club!" {
		t.Errorf("generated_text = %q", resp.GeneratedText)
	}

	// The user prompt carries the request details.
	prompt := stub.LastRequest.Messages[1].Content
	for _, want := range []string{"hiking club", "warm", "freshmen"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q: %s", want, prompt)
		}
	}
}

func TestHandleSlogan(t *testing.T) {
	stub := &llmtest.StubProvider{Content: `{"generated_text":"Climb higher together."}`}
	w := post(t, newTestMux(stub), "/generate/slogan", `{"content":"climbing club"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp GeneratedTextResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.GeneratedText != "Climb higher together." {
		t.Errorf("generated_text = %q", resp.GeneratedText)
	}
}

func TestHandleEventPlan(t *testing.T) {
	stub := &llmtest.StubProvider{
		Content: `{"title":"Autumn Hike","plan":"Meet at 8am...","checklist":["book bus","buy water"]}`,
	}
	w := post(t, newTestMux(stub), "/generate/eventplan",
		`{"club_name":"Hiking Club","event_type":"day hike"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp EventPlanResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Title != "Autumn Hike" || len(resp.Checklist) != 2 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandleEventPlan_MissingClubName(t *testing.T) {
	stub := &llmtest.StubProvider{}
	w := post(t, newTestMux(stub), "/generate/eventplan", `{"event_type":"day hike"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if stub.Calls != 0 {
		t.Errorf("backend called for invalid request")
	}
}

func TestHandleAtmosphere(t *testing.T) {
	stub := &llmtest.StubProvider{
		Content: `{"atmosphere_tags":["friendly","active"],"culture_summary":"A welcoming group."}`,
	}
	w := post(t, newTestMux(stub), "/generate/atmosphere",
		`{"communication_content":"hey all, who is up for a ride this weekend?"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp AtmosphereResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.AtmosphereTags) != 2 || resp.CultureSummary == "" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandleScreening(t *testing.T) {
	stub := &llmtest.StubProvider{
		Content: `{"summary":"Strong fit.","suggestion":"Accept: meets all conditions."}`,
	}
	body := `{
		"applicant_data": {"name":"Li Hua","major":"CS","skills":["python"],"experience":"2 years"},
		"application_reason": "I love chess",
		"required_conditions": ["attend weekly meetings"],
		"club_name": "Chess Club"
	}`
	w := post(t, newTestMux(stub), "/generate/screening", body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ScreeningResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Summary != "Strong fit." || resp.Suggestion == "" {
		t.Errorf("resp = %+v", resp)
	}

	prompt := stub.LastRequest.Messages[1].Content
	for _, want := range []string{"Li Hua", "Chess Club", "attend weekly meetings"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestHandleRecommendation(t *testing.T) {
	stub := &llmtest.StubProvider{
		Content: `{"recommendations":["Chess Club","Go Club"],"reason":"Both match strategy interests."}`,
	}
	w := post(t, newTestMux(stub), "/generate/recommendation",
		`{"interests":["strategy games"],"candidate_clubs":["Chess Club","Go Club","Dance Club"]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp RecommendationResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Recommendations) != 2 || resp.Recommendations[0] != "Chess Club" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandleRecommendation_EmptyInterests(t *testing.T) {
	w := post(t, newTestMux(&llmtest.StubProvider{}), "/generate/recommendation",
		`{"interests":[],"candidate_clubs":["Chess Club"]}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGenerate_UnparsableModelOutput(t *testing.T) {
	stub := &llmtest.StubProvider{Content: "I cannot answer in JSON, sorry."}
	w := post(t, newTestMux(stub), "/generate/slogan", `{"content":"chess"}`)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	var p struct {
		Kind string `json:"kind"`
	}
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if p.Kind != "unparsable_output" {
		t.Errorf("kind = %q, want unparsable_output", p.Kind)
	}
}

func TestGenerate_SchemaViolation(t *testing.T) {
	stub := &llmtest.StubProvider{Content: `{"wrong_key":"x"}`}
	w := post(t, newTestMux(stub), "/generate/slogan", `{"content":"chess"}`)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	var p struct {
		Kind   string `json:"kind"`
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if p.Kind != "schema_violation" {
		t.Errorf("kind = %q, want schema_violation", p.Kind)
	}
	if !strings.Contains(p.Detail, "generated_text") {
		t.Errorf("detail should name the missing field: %s", p.Detail)
	}
}
