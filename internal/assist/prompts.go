// Package assist implements the AI generation features for club operators:
// introductions, slogans, event plans, atmosphere analysis, application
// screening, and club recommendations. Each feature is one prompt pair plus
// one extraction schema over the shared chat engine.
package assist

import (
	"fmt"
	"strings"

	"github.com/whuclubsynapse/synapse-ai/internal/extract"
)

// Every feature instructs the model to answer with a single JSON object so
// the extractor can do its job. The instruction is repeated per feature
// because models follow local instructions more reliably than global ones.
const jsonOnly = "Respond with a single JSON object and nothing else."

const (
	introductionSystem = "You are a copywriter for university club profiles. " +
		jsonOnly + ` The object must have the key "generated_text" holding the introduction.`

	sloganSystem = "You are a copywriter who writes short, punchy club slogans. " +
		jsonOnly + ` The object must have the key "generated_text" holding one slogan.`

	eventPlanSystem = "You are an experienced student-club event organizer. " +
		jsonOnly + ` The object must have the keys "title" (string), "plan"
(string, the full plan) and "checklist" (array of preparation steps).`

	atmosphereSystem = "You analyze the tone of club group-chat excerpts. " +
		jsonOnly + ` The object must have the keys "atmosphere_tags" (array of
short descriptive tags) and "culture_summary" (string).`

	screeningSystem = "You help club managers review membership applications. " +
		"Be fair and concrete; never invent facts about the applicant. " +
		jsonOnly + ` The object must have the keys "summary" (string) and
"suggestion" (string, an acceptance recommendation with reasoning).`

	recommendationSystem = "You match students to university clubs based on their interests. " +
		jsonOnly + ` The object must have the keys "recommendations" (array of
club names drawn only from the provided candidates, best match first) and
"reason" (string).`
)

var (
	generatedTextSchema = extract.Schema{
		{Name: "generated_text", Kind: extract.String, Required: true},
	}
	eventPlanSchema = extract.Schema{
		{Name: "title", Kind: extract.String, Required: true},
		{Name: "plan", Kind: extract.String, Required: true},
		{Name: "checklist", Kind: extract.StringList, Required: false},
	}
	atmosphereSchema = extract.Schema{
		{Name: "atmosphere_tags", Kind: extract.StringList, Required: true},
		{Name: "culture_summary", Kind: extract.String, Required: true},
	}
	screeningSchema = extract.Schema{
		{Name: "summary", Kind: extract.String, Required: true},
		{Name: "suggestion", Kind: extract.String, Required: true},
	}
	recommendationSchema = extract.Schema{
		{Name: "recommendations", Kind: extract.StringList, Required: true},
		{Name: "reason", Kind: extract.String, Required: true},
	}
)

func introductionPrompt(req IntroductionRequest) string {
	var b strings.Builder
	b.WriteString("Write an introduction for a university club.\n")
	if req.Content != "" {
		fmt.Fprintf(&b, "Club details: %s\n", req.Content)
	}
	if req.Style != "" {
		fmt.Fprintf(&b, "Writing style: %s\n", req.Style)
	}
	if req.TargetPeople != "" {
		fmt.Fprintf(&b, "Target audience: %s\n", req.TargetPeople)
	}
	return b.String()
}

func sloganPrompt(req SloganRequest) string {
	var b strings.Builder
	b.WriteString("Write a slogan for a university club.\n")
	if req.Content != "" {
		fmt.Fprintf(&b, "Club details: %s\n", req.Content)
	}
	if req.Style != "" {
		fmt.Fprintf(&b, "Style: %s\n", req.Style)
	}
	if req.Expectation != "" {
		fmt.Fprintf(&b, "What the slogan should convey: %s\n", req.Expectation)
	}
	return b.String()
}

func eventPlanPrompt(req EventPlanRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Draft an event plan for the club %q.\n", req.ClubName)
	if req.EventType != "" {
		fmt.Fprintf(&b, "Event type: %s\n", req.EventType)
	}
	if req.Goals != "" {
		fmt.Fprintf(&b, "Goals: %s\n", req.Goals)
	}
	return b.String()
}

func atmospherePrompt(req AtmosphereRequest) string {
	return fmt.Sprintf(
		"Analyze the atmosphere of the club behind this group-chat excerpt:\n\n%s\n",
		req.CommunicationContent)
}

func screeningPrompt(req ScreeningRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Review this application to the club %q.\n\n", req.ClubName)
	fmt.Fprintf(&b, "Applicant: %s\n", req.ApplicantData.Name)
	if req.ApplicantData.Major != "" {
		fmt.Fprintf(&b, "Major: %s\n", req.ApplicantData.Major)
	}
	if len(req.ApplicantData.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(req.ApplicantData.Skills, ", "))
	}
	if req.ApplicantData.Experience != "" {
		fmt.Fprintf(&b, "Experience: %s\n", req.ApplicantData.Experience)
	}
	fmt.Fprintf(&b, "Application reason: %s\n", req.ApplicationReason)
	if len(req.RequiredConditions) > 0 {
		fmt.Fprintf(&b, "The club requires: %s\n", strings.Join(req.RequiredConditions, "; "))
	}
	return b.String()
}

func recommendationPrompt(req RecommendationRequest) string {
	return fmt.Sprintf(
		"A student is interested in: %s.\nCandidate clubs: %s.\nRank the candidates for this student.\n",
		strings.Join(req.Interests, ", "),
		strings.Join(req.CandidateClubs, ", "))
}
