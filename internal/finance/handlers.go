package finance

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/whuclubsynapse/synapse-ai/internal/api"
	"github.com/whuclubsynapse/synapse-ai/internal/extract"
	"github.com/whuclubsynapse/synapse-ai/internal/relay"
	"go.uber.org/zap"
)

const bookkeepingSystem = `You turn casual spending descriptions from club
managers into bookkeeping entries. Respond with a single JSON array and
nothing else. Each element must have "item" (string) and "amount" (number,
the amount spent), and may have "category", "payer", "date" and "remark"
(strings). Record every purchase mentioned as its own element. Never invent
purchases that are not mentioned.`

const warningSystem = `You write short budget warnings for club managers.
Respond with a single JSON object with the key "warning" (string): one or
two sentences grounded only in the numbers provided.`

const reportSystem = `You write concise financial report summaries for club
managers. Respond with a single JSON object with the key "report_summary"
(string): a short prose summary grounded only in the numbers provided.`

var entrySchema = extract.Schema{
	{Name: "item", Kind: extract.String, Required: true},
	{Name: "amount", Kind: extract.Number, Required: true},
	{Name: "category", Kind: extract.String, Required: false},
	{Name: "payer", Kind: extract.String, Required: false},
	{Name: "date", Kind: extract.String, Required: false},
	{Name: "remark", Kind: extract.String, Required: false},
}

var warningSchema = extract.Schema{
	{Name: "warning", Kind: extract.String, Required: true},
}

var reportSchema = extract.Schema{
	{Name: "report_summary", Kind: extract.String, Required: true},
}

// BookkeepingRequest carries a natural-language spending description.
type BookkeepingRequest struct {
	NaturalLanguageInput string `json:"natural_language_input"`
	ClubName             string `json:"club_name"`
}

// BookkeepingResponse returns the recorded entries.
type BookkeepingResponse struct {
	ParsedEntries       []LedgerEntry `json:"parsed_entries"`
	ConfirmationMessage string        `json:"confirmation_message"`
	OriginalInput       string        `json:"original_input"`
}

// SetBudgetRequest sets a club's budget.
type SetBudgetRequest struct {
	ClubName    string  `json:"club_name"`
	Limit       float64 `json:"limit"`
	Description string  `json:"description,omitempty"`
}

// BudgetStatus is the queryable budget snapshot. Remaining is present only
// when a budget has been set.
type BudgetStatus struct {
	Limit       float64  `json:"limit"`
	Description string   `json:"description,omitempty"`
	Spent       float64  `json:"spent"`
	Remaining   *float64 `json:"remaining,omitempty"`
	EntryCount  int      `json:"entry_count"`
}

// WarningRequest asks for a budget warning text.
type WarningRequest struct {
	ClubName string `json:"club_name"`
}

// WarningResponse carries the generated warning.
type WarningResponse struct {
	Warning string `json:"warning"`
}

// ReportRequest asks for a financial report.
type ReportRequest struct {
	ClubName string `json:"club_name"`
}

// ReportResponse is the generated report plus the deterministic figures it
// was grounded on.
type ReportResponse struct {
	ReportSummary     string             `json:"report_summary"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	TotalSpent        float64            `json:"total_spent"`
	EntryCount        int                `json:"entry_count"`
}

// Handler provides the financial assistant endpoints.
type Handler struct {
	engine *relay.Engine
	store  *Store
	logger *zap.Logger
}

// NewHandler creates a finance Handler.
func NewHandler(engine *relay.Engine, store *Store, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, store: store, logger: logger}
}

// RegisterRoutes registers the financial routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /financial/bookkeeping", h.handleBookkeeping)
	mux.HandleFunc("POST /financial/budget", h.handleSetBudget)
	mux.HandleFunc("GET /financial/budget", h.handleGetBudget)
	mux.HandleFunc("POST /financial/budget/warning", h.handleBudgetWarning)
	mux.HandleFunc("POST /financial/report", h.handleReport)
}

// handleBookkeeping parses a natural-language spending description into
// ledger entries and appends them to the club's ledger.
func (h *Handler) handleBookkeeping(w http.ResponseWriter, r *http.Request) {
	var req BookkeepingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON body: "+err.Error(), r.URL.Path)
		return
	}
	if req.ClubName == "" {
		api.BadRequest(w, "club_name is required", r.URL.Path)
		return
	}
	if req.NaturalLanguageInput == "" {
		api.BadRequest(w, "natural_language_input is required", r.URL.Path)
		return
	}

	raw, err := h.engine.CompleteText(r.Context(), bookkeepingSystem, req.NaturalLanguageInput)
	if err != nil {
		api.WriteError(w, err, r.URL.Path)
		return
	}

	parsed, err := extract.ExtractList(raw, entrySchema)
	if err != nil {
		h.logger.Warn("bookkeeping output failed extraction", zap.Error(err))
		api.WriteError(w, err, r.URL.Path)
		return
	}

	entries := make([]LedgerEntry, len(parsed))
	for i, obj := range parsed {
		if obj.Number("amount") < 0 {
			api.WriteError(w, &extract.SchemaError{
				Field:  fmt.Sprintf("entries[%d].amount", i),
				Reason: "amount must not be negative",
			}, r.URL.Path)
			return
		}
		entries[i] = LedgerEntry{
			Item:     obj.String("item"),
			Amount:   obj.Number("amount"),
			Category: obj.String("category"),
			Payer:    obj.String("payer"),
			Date:     obj.String("date"),
			Remark:   obj.String("remark"),
		}
	}

	recorded, err := h.store.AppendEntries(req.ClubName, entries)
	if err != nil {
		h.logger.Error("append ledger entries", zap.String("club", req.ClubName), zap.Error(err))
		api.InternalError(w, "failed to persist entries", r.URL.Path)
		return
	}

	api.RespondJSON(w, http.StatusOK, BookkeepingResponse{
		ParsedEntries:       recorded,
		ConfirmationMessage: confirmationMessage(recorded),
		OriginalInput:       req.NaturalLanguageInput,
	})
}

func (h *Handler) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req SetBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON body: "+err.Error(), r.URL.Path)
		return
	}
	if req.ClubName == "" {
		api.BadRequest(w, "club_name is required", r.URL.Path)
		return
	}
	if req.Limit <= 0 {
		api.BadRequest(w, "limit must be greater than zero", r.URL.Path)
		return
	}

	budget, err := h.store.SetBudget(req.ClubName, req.Limit, req.Description)
	if err != nil {
		h.logger.Error("set budget", zap.String("club", req.ClubName), zap.Error(err))
		api.InternalError(w, "failed to persist budget", r.URL.Path)
		return
	}
	api.RespondJSON(w, http.StatusOK, budget)
}

func (h *Handler) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	club := r.URL.Query().Get("club")
	if club == "" {
		api.BadRequest(w, "club query parameter is required", r.URL.Path)
		return
	}

	ledger, err := h.store.Ledger(club)
	if err != nil {
		h.logger.Error("load ledger", zap.String("club", club), zap.Error(err))
		api.InternalError(w, "failed to load ledger", r.URL.Path)
		return
	}

	status := BudgetStatus{
		Spent:      ledger.Spent(),
		EntryCount: len(ledger.Entries),
	}
	if ledger.Budget != nil {
		status.Limit = ledger.Budget.Limit
		status.Description = ledger.Budget.Description
		remaining := ledger.Budget.Limit - status.Spent
		status.Remaining = &remaining
	}
	api.RespondJSON(w, http.StatusOK, status)
}

// handleBudgetWarning generates a short warning text grounded in the club's
// recorded spending against its budget.
func (h *Handler) handleBudgetWarning(w http.ResponseWriter, r *http.Request) {
	var req WarningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON body: "+err.Error(), r.URL.Path)
		return
	}
	if req.ClubName == "" {
		api.BadRequest(w, "club_name is required", r.URL.Path)
		return
	}

	ledger, err := h.store.Ledger(req.ClubName)
	if err != nil {
		h.logger.Error("load ledger", zap.String("club", req.ClubName), zap.Error(err))
		api.InternalError(w, "failed to load ledger", r.URL.Path)
		return
	}
	if ledger.Budget == nil {
		api.BadRequest(w, "no budget set for club "+req.ClubName, r.URL.Path)
		return
	}

	spent := ledger.Spent()
	prompt := fmt.Sprintf(
		"Club %q has a budget of %.2f and has spent %.2f across %d entries (%.2f remaining).",
		req.ClubName, ledger.Budget.Limit, spent, len(ledger.Entries), ledger.Budget.Limit-spent)

	raw, err := h.engine.CompleteText(r.Context(), warningSystem, prompt)
	if err != nil {
		api.WriteError(w, err, r.URL.Path)
		return
	}
	obj, err := extract.Extract(raw, warningSchema)
	if err != nil {
		h.logger.Warn("warning output failed extraction", zap.Error(err))
		api.WriteError(w, err, r.URL.Path)
		return
	}

	api.RespondJSON(w, http.StatusOK, WarningResponse{Warning: obj.String("warning")})
}

// handleReport computes deterministic figures from the ledger and asks the
// model only for the prose summary.
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON body: "+err.Error(), r.URL.Path)
		return
	}
	if req.ClubName == "" {
		api.BadRequest(w, "club_name is required", r.URL.Path)
		return
	}

	ledger, err := h.store.Ledger(req.ClubName)
	if err != nil {
		h.logger.Error("load ledger", zap.String("club", req.ClubName), zap.Error(err))
		api.InternalError(w, "failed to load ledger", r.URL.Path)
		return
	}

	breakdown := ledger.ByCategory()
	total := ledger.Spent()

	raw, err := h.engine.CompleteText(r.Context(), reportSystem, reportPrompt(req.ClubName, ledger, breakdown, total))
	if err != nil {
		api.WriteError(w, err, r.URL.Path)
		return
	}
	obj, err := extract.Extract(raw, reportSchema)
	if err != nil {
		h.logger.Warn("report output failed extraction", zap.Error(err))
		api.WriteError(w, err, r.URL.Path)
		return
	}

	api.RespondJSON(w, http.StatusOK, ReportResponse{
		ReportSummary:     obj.String("report_summary"),
		CategoryBreakdown: breakdown,
		TotalSpent:        total,
		EntryCount:        len(ledger.Entries),
	})
}

func confirmationMessage(entries []LedgerEntry) string {
	var total float64
	items := make([]string, len(entries))
	for i, e := range entries {
		total += e.Amount
		items[i] = e.Item
	}
	if len(entries) == 0 {
		return "No entries were recognized in the input."
	}
	return fmt.Sprintf("Recorded %d entries (%s) totaling %.2f.",
		len(entries), strings.Join(items, ", "), total)
}

func reportPrompt(club string, ledger TenantLedger, breakdown map[string]float64, total float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Club %q spending: %.2f total across %d entries.\n", club, total, len(ledger.Entries))

	// Stable iteration so identical ledgers produce identical prompts.
	cats := make([]string, 0, len(breakdown))
	for c := range breakdown {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		fmt.Fprintf(&b, "Category %s: %.2f\n", c, breakdown[c])
	}

	if ledger.Budget != nil {
		fmt.Fprintf(&b, "Budget: %.2f (%.2f remaining).\n", ledger.Budget.Limit, ledger.Budget.Limit-total)
	}
	return b.String()
}
