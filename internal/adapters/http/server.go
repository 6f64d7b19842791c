package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sondaj/internal/domain"
	"sondaj/internal/ports"
	"sondaj/internal/services/auth"
	"sondaj/internal/services/extract"
	"sondaj/internal/services/stats"
)

// minPasteLength guards the extract endpoint against fragments pasted by
// accident; a real Targetare profile is always longer than this.
const minPasteLength = 100

type Server struct {
	survey    ports.Survey
	dashboard ports.Dashboard
	live      ports.LiveStats
	registry  ports.Registry
	auth      ports.Auth
}

func New(survey ports.Survey, dashboard ports.Dashboard, live ports.LiveStats, registry ports.Registry, authn ports.Auth) *Server {
	return &Server{survey: survey, dashboard: dashboard, live: live, registry: registry, auth: authn}
}

// Routes mounts the API. Everything except the health check and login
// requires a bearer token from POST /login.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Post("/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireOperator)
		r.Post("/extract", s.handleExtract)
		r.Post("/lookup", s.handleLookup)
		r.Get("/responses/check", s.handleCheckCUI)
		r.Post("/responses", s.handleSubmit)
		r.Get("/stats", s.handleStats)
		r.Get("/stats/live", s.handleLiveStats)
		r.Get("/motive-options", s.handleListMotiveOptions)
		r.Post("/motive-options", s.handleAddMotiveOption)
	})
	return r
}

type ctxKey int

const operatorKey ctxKey = 0

func (s *Server) requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		operator, ok := s.auth.OperatorForToken(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), operatorKey, operator)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func operatorFrom(ctx context.Context) string {
	operator, _ := ctx.Value(operatorKey).(string)
	return operator
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Operator string `json:"operator"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	token, operator, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Operator: operator})
}

type extractRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Text)) < minPasteLength {
		writeError(w, http.StatusUnprocessableEntity, "pasted text too short to be a company profile")
		return
	}
	rec, err := extract.Parse(req.Text)
	if err != nil {
		if errors.Is(err, extract.ErrNotFound) {
			writeError(w, http.StatusNotFound, "could not find a CUI and company name in the text")
			return
		}
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type lookupRequest struct {
	CUI string `json:"cui"`
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	cui := extract.CleanCUI(req.CUI)
	if cui == "" {
		writeError(w, http.StatusBadRequest, "cui is required")
		return
	}
	rec, err := s.registry.LookupCUI(r.Context(), cui)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "company not found in registry")
			return
		}
		log.Printf("registry lookup failed for cui=%s: %v", cui, err)
		writeError(w, http.StatusBadGateway, "registry lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCheckCUI(w http.ResponseWriter, r *http.Request) {
	cui := extract.CleanCUI(r.URL.Query().Get("cui"))
	if cui == "" {
		writeError(w, http.StatusBadRequest, "cui query parameter is required")
		return
	}
	exists, err := s.survey.AlreadySurveyed(r.Context(), cui)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// submitRequest mirrors the stored row shapes. Exactly one of the answer
// blocks must be present, matching the schema tag.
type submitRequest struct {
	Schema          string  `json:"schema"`
	CUI             string  `json:"cui"`
	CompanyName     string  `json:"nume_firma"`
	Locality        string  `json:"localitate"`
	County          string  `json:"judet"`
	CAENCode        string  `json:"cod_caen"`
	IsAdministrator bool    `json:"este_administrator"`
	Phone           *string `json:"telefon,omitempty"`
	Administrator   *string `json:"administrator,omitempty"`
	EndReason       string  `json:"motiv_incheiere,omitempty"`

	V1 *answersV1Request `json:"v1,omitempty"`
	V2 *answersV2Request `json:"v2,omitempty"`
}

type answersV1Request struct {
	ExpenseShare     string `json:"procent_cheltuieli_contabil"`
	ImpedimentScore  int    `json:"impediment_contabil_score"`
	JustifiedScore   int    `json:"justificare_obligativitate_score"`
	SelfCapableScore int    `json:"capabil_contabilitate_proprie_score"`
	CostInfluence    string `json:"influenta_costuri_contabilitate"`
	MonthlySum       string `json:"suma_lunara_contabilitate"`
}

type answersV2Request struct {
	ExpenseShare        string  `json:"q2_procent_cheltuieli"`
	AccountantRelation  string  `json:"q3_relatie_contabil"`
	ObligationJustified string  `json:"q4_obligatie_intemeiata"`
	ObligationMotiveIDs []int64 `json:"q4_motive_option_ids"`
	CapableScore        int     `json:"q5_capabil_score"`
	CapableMotive       string  `json:"q5_capabil_motive"`
	AutomatedMotive     string  `json:"q6_motiv_automatizat"`
	MonthlySum          string  `json:"q7_suma_lunara"`
	WhyAccountant       string  `json:"q8_de_ce_contabil"`
	WouldDropAccountant string  `json:"q9_renunta_contabil"`
	DropMotiveIDs       []int64 `json:"q9_motive_option_ids"`
	AgeBand             string  `json:"q10_varsta"`
	Education           string  `json:"q11_nivel_studii"`
}

func (req *submitRequest) toDomain(operator string) *domain.Response {
	r := &domain.Response{
		CUI:             strings.TrimSpace(req.CUI),
		CompanyName:     strings.TrimSpace(req.CompanyName),
		Locality:        req.Locality,
		County:          req.County,
		CAENCode:        req.CAENCode,
		IsAdministrator: req.IsAdministrator,
		Operator:        operator,
		Phone:           req.Phone,
		Administrator:   req.Administrator,
		EndReason:       strings.TrimSpace(req.EndReason),
		Schema:          domain.Schema(req.Schema),
	}
	if req.V1 != nil {
		r.V1 = &domain.AnswersV1{
			ExpenseShare:     req.V1.ExpenseShare,
			ImpedimentScore:  req.V1.ImpedimentScore,
			JustifiedScore:   req.V1.JustifiedScore,
			SelfCapableScore: req.V1.SelfCapableScore,
			CostInfluence:    req.V1.CostInfluence,
			MonthlySum:       req.V1.MonthlySum,
		}
	}
	if req.V2 != nil {
		r.V2 = &domain.AnswersV2{
			ExpenseShare:        req.V2.ExpenseShare,
			AccountantRelation:  req.V2.AccountantRelation,
			ObligationJustified: req.V2.ObligationJustified,
			ObligationMotiveIDs: req.V2.ObligationMotiveIDs,
			CapableScore:        req.V2.CapableScore,
			CapableMotive:       req.V2.CapableMotive,
			AutomatedMotive:     req.V2.AutomatedMotive,
			MonthlySum:          req.V2.MonthlySum,
			WhyAccountant:       req.V2.WhyAccountant,
			WouldDropAccountant: req.V2.WouldDropAccountant,
			DropMotiveIDs:       req.V2.DropMotiveIDs,
			AgeBand:             req.V2.AgeBand,
			Education:           req.V2.Education,
		}
	}
	return r
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	// The operator comes from the session, never from the body.
	resp := req.toDomain(operatorFrom(r.Context()))
	if err := resp.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	id, err := s.survey.Submit(r.Context(), resp)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	schema, operator := statsParams(r)
	switch schema {
	case domain.SchemaV1:
		result, err := s.dashboard.V1(r.Context(), operator)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	case domain.SchemaV2:
		result, err := s.dashboard.V2(r.Context(), operator)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	default:
		writeError(w, http.StatusBadRequest, "schema must be v1 or v2")
	}
}

func (s *Server) handleLiveStats(w http.ResponseWriter, r *http.Request) {
	schema, operator := statsParams(r)
	switch schema {
	case domain.SchemaV1:
		result, ok := s.live.SnapshotV1(operator)
		if !ok {
			writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
			return
		}
		writeJSON(w, http.StatusOK, result)
	case domain.SchemaV2:
		result, ok := s.live.SnapshotV2(operator)
		if !ok {
			writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
			return
		}
		writeJSON(w, http.StatusOK, result)
	default:
		writeError(w, http.StatusBadRequest, "schema must be v1 or v2")
	}
}

func statsParams(r *http.Request) (domain.Schema, string) {
	schema := domain.Schema(r.URL.Query().Get("schema"))
	if schema == "" {
		schema = domain.SchemaV1
	}
	operator := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("operator")))
	if operator == "" {
		operator = stats.AllOperators
	}
	return schema, operator
}

func (s *Server) handleListMotiveOptions(w http.ResponseWriter, r *http.Request) {
	category := domain.MotiveCategory(r.URL.Query().Get("category"))
	options, err := s.survey.MotiveOptions(r.Context(), category)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if options == nil {
		options = []domain.MotiveOption{}
	}
	writeJSON(w, http.StatusOK, options)
}

type addMotiveOptionRequest struct {
	Category string `json:"category"`
	Label    string `json:"label"`
}

func (s *Server) handleAddMotiveOption(w http.ResponseWriter, r *http.Request) {
	var req addMotiveOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	option, err := s.survey.AddMotiveOption(r.Context(), domain.MotiveOption{
		Category: domain.MotiveCategory(req.Category),
		Label:    req.Label,
		IsCustom: true,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, option)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func internalError(w http.ResponseWriter, err error) {
	log.Printf("internal error: %v", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
