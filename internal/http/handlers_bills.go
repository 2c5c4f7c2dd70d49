package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"contas/internal/bills"
	"contas/internal/core"
	"contas/internal/services"
)

// obligationDTO is the wire shape of an obligation. Dates are RFC3339;
// amounts are integer cents.
type obligationDTO struct {
	ID                 string   `json:"id"`
	Kind               string   `json:"kind"`
	Description        string   `json:"description"`
	Category           string   `json:"category,omitempty"`
	SubCategory        string   `json:"subCategory,omitempty"`
	AmountCents        int64    `json:"amountCents"`
	DueDay             int      `json:"dueDay"`
	StartDate          string   `json:"startDate,omitempty"`
	EndDate            string   `json:"endDate,omitempty"`
	TotalInstallments  int      `json:"totalInstallments,omitempty"`
	CurrentInstallment int      `json:"currentInstallment,omitempty"`
	PaymentHistory     []string `json:"paymentHistory,omitempty"`
	Exclusions         []string `json:"exclusions,omitempty"`
	BalanceCents       int64    `json:"balanceCents,omitempty"`
	IsSettled          bool     `json:"isSettled,omitempty"`
	SettledDate        string   `json:"settledDate,omitempty"`
	LastPaidDate       string   `json:"lastPaidDate,omitempty"`
	AutoPay            bool     `json:"autoPay,omitempty"`
}

type entryDTO struct {
	obligationDTO
	OccurrenceIndex int    `json:"occurrenceIndex,omitempty"`
	Paid            bool   `json:"paid"`
	Status          string `json:"status"`
}

type monthViewDTO struct {
	Year    int        `json:"year"`
	Month   int        `json:"month"`
	Entries []entryDTO `json:"entries"`
	Summary struct {
		TotalCents   int64 `json:"totalCents"`
		PaidCents    int64 `json:"paidCents"`
		PendingCents int64 `json:"pendingCents"`
		OverdueCount int   `json:"overdueCount"`
	} `json:"summary"`
}

func toObligationDTO(o core.Obligation) obligationDTO {
	dto := obligationDTO{
		ID:                 o.ID,
		Kind:               string(o.Kind),
		Description:        o.Description,
		Category:           o.Category,
		SubCategory:        o.SubCategory,
		AmountCents:        o.Amount.Cents,
		DueDay:             o.DueDay,
		TotalInstallments:  o.TotalInstallments,
		CurrentInstallment: o.CurrentInstallment,
		Exclusions:         o.Exclusions,
		BalanceCents:       o.CurrentBalance.Cents,
		IsSettled:          o.IsSettled,
		AutoPay:            o.AutoPay,
	}
	if !o.StartDate.IsZero() {
		dto.StartDate = o.StartDate.Format(time.RFC3339)
	}
	if !o.EndDate.IsZero() {
		dto.EndDate = o.EndDate.Format(time.RFC3339)
	}
	if !o.SettledDate.IsZero() {
		dto.SettledDate = o.SettledDate.Format(time.RFC3339)
	}
	if !o.LastPaidDate.IsZero() {
		dto.LastPaidDate = o.LastPaidDate.Format(time.RFC3339)
	}
	for _, t := range o.PaymentHistory {
		dto.PaymentHistory = append(dto.PaymentHistory, t.Format(time.RFC3339))
	}
	return dto
}

func toMonthViewDTO(view services.MonthView) monthViewDTO {
	out := monthViewDTO{
		Year:    view.Year,
		Month:   view.Month,
		Entries: make([]entryDTO, 0, len(view.Entries)),
	}
	for _, e := range view.Entries {
		out.Entries = append(out.Entries, entryDTO{
			obligationDTO:   toObligationDTO(e.Obligation),
			OccurrenceIndex: e.Projection.OccurrenceIndex,
			Paid:            e.Projection.PaidThisMonth,
			Status:          string(e.Status),
		})
	}
	out.Summary.TotalCents = view.Summary.TotalAmount.Cents
	out.Summary.PaidCents = view.Summary.PaidAmount.Cents
	out.Summary.PendingCents = view.Summary.PendingAmount.Cents
	out.Summary.OverdueCount = view.Summary.OverdueCount
	return out
}

func (s *Server) handleBills(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleMonthView(w, r)
	case http.MethodPost:
		s.handleCreate(w, r)
	case http.MethodDelete:
		s.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleMonthView(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = m
	}

	view, err := s.service.View(r.Context(), year, month, now)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthViewDTO(view))
}

type createRequest struct {
	Kind              string `json:"kind"`
	Description       string `json:"description"`
	Category          string `json:"category"`
	SubCategory       string `json:"subCategory"`
	Amount            string `json:"amount"`
	AmountIsTotal     bool   `json:"amountIsTotal"`
	DueDay            int    `json:"dueDay"`
	StartDate         string `json:"startDate"`
	EndDate           string `json:"endDate"`
	TotalInstallments int    `json:"totalInstallments"`
	AutoPay           bool   `json:"autoPay"`
}

// maxBodyBytes caps mutation request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	params := bills.CreateParams{
		Kind:              core.ObligationKind(req.Kind),
		Description:       strings.TrimSpace(req.Description),
		Category:          strings.TrimSpace(req.Category),
		SubCategory:       strings.TrimSpace(req.SubCategory),
		Amount:            core.Money{Cents: cents},
		AmountIsTotal:     req.AmountIsTotal,
		DueDay:            req.DueDay,
		TotalInstallments: req.TotalInstallments,
		AutoPay:           req.AutoPay,
	}
	if params.StartDate, err = parseDate(req.StartDate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date")
		return
	}
	if params.EndDate, err = parseDate(req.EndDate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date")
		return
	}

	o, err := s.service.Create(r.Context(), params)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toObligationDTO(o))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}
	if err := s.service.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type payRequest struct {
	ID     string `json:"id"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Amount string `json:"amount"`
	Bank   string `json:"bank"`
	Method string `json:"method"`
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if !decodeMutation(w, r, &req, &req.ID, &req.Year, &req.Month) {
		return
	}

	amount, ok := optionalAmount(w, req.Amount)
	if !ok {
		return
	}

	o, err := s.service.Pay(r.Context(), req.ID, bills.PayParams{
		Year:   req.Year,
		Month:  req.Month,
		Amount: amount,
		Bank:   req.Bank,
		Method: req.Method,
		Now:    time.Now(),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toObligationDTO(o))
}

type settleRequest struct {
	ID     string `json:"id"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Total  string `json:"total"`
	Bank   string `json:"bank"`
	Method string `json:"method"`
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if !decodeMutation(w, r, &req, &req.ID, &req.Year, &req.Month) {
		return
	}

	total, ok := optionalAmount(w, req.Total)
	if !ok {
		return
	}

	o, err := s.service.Settle(r.Context(), req.ID, bills.SettleParams{
		Year:   req.Year,
		Month:  req.Month,
		Total:  total,
		Bank:   req.Bank,
		Method: req.Method,
		Now:    time.Now(),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toObligationDTO(o))
}

type abateRequest struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
	Bank   string `json:"bank"`
	Method string `json:"method"`
}

func (s *Server) handleAbate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req abateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	o, err := s.service.Abate(r.Context(), req.ID, bills.AbateParams{
		Amount: core.Money{Cents: cents},
		Bank:   req.Bank,
		Method: req.Method,
		Now:    time.Now(),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toObligationDTO(o))
}

type occurrenceRequest struct {
	ID    string `json:"id"`
	Year  int    `json:"year"`
	Month int    `json:"month"`
}

func (s *Server) handleDefer(w http.ResponseWriter, r *http.Request) {
	var req occurrenceRequest
	if !decodeMutation(w, r, &req, &req.ID, &req.Year, &req.Month) {
		return
	}

	origin, copy, err := s.service.Defer(r.Context(), req.ID, req.Year, req.Month)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Origin obligationDTO `json:"origin"`
		Copy   obligationDTO `json:"copy"`
	}{toObligationDTO(origin), toObligationDTO(copy)})
}

func (s *Server) handleExclude(w http.ResponseWriter, r *http.Request) {
	var req occurrenceRequest
	if !decodeMutation(w, r, &req, &req.ID, &req.Year, &req.Month) {
		return
	}

	o, err := s.service.Exclude(r.Context(), req.ID, req.Year, req.Month)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toObligationDTO(o))
}

// decodeMutation handles the shared POST/decode/validate steps of the
// occurrence mutation endpoints.
func decodeMutation(w http.ResponseWriter, r *http.Request, req any, id *string, year, month *int) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if strings.TrimSpace(*id) == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return false
	}
	if *month < 1 || *month > 12 {
		writeError(w, http.StatusBadRequest, "invalid month")
		return false
	}
	if *year < 1 {
		writeError(w, http.StatusBadRequest, "invalid year")
		return false
	}
	return true
}

// optionalAmount parses a decimal amount string; empty means "use the
// record's default".
func optionalAmount(w http.ResponseWriter, raw string) (core.Money, bool) {
	if strings.TrimSpace(raw) == "" {
		return core.Money{}, true
	}
	cents, err := core.ParseDecimalToCents(raw)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return core.Money{}, false
	}
	return core.Money{Cents: cents}, true
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// writeServiceError maps domain errors onto status codes: precondition
// violations are conflicts, validation failures are unprocessable, unknown
// IDs are not found.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrAlreadyPaid),
		errors.Is(err, core.ErrAlreadySettled),
		errors.Is(err, core.ErrNothingToSettle),
		errors.Is(err, core.ErrNotMonthly),
		errors.Is(err, core.ErrNotInstallment),
		errors.Is(err, core.ErrNotDebt):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDueDay),
		errors.Is(err, core.ErrMissingStartDate),
		errors.Is(err, core.ErrMissingInstallments),
		errors.Is(err, core.ErrUnknownKind):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"url", r.URL.Path,
			"error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{msg})
}
