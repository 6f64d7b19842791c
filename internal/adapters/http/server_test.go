package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"sondaj/internal/domain"
	"sondaj/internal/ports"
	authsvc "sondaj/internal/services/auth"
	"sondaj/internal/services/stats"
)

type fakeSurvey struct {
	submitted *domain.Response
	exists    bool
	options   []domain.MotiveOption
}

func (f *fakeSurvey) Submit(_ context.Context, r *domain.Response) (int64, error) {
	f.submitted = r
	return 42, nil
}

func (f *fakeSurvey) AlreadySurveyed(context.Context, string) (bool, error) {
	return f.exists, nil
}

func (f *fakeSurvey) AddMotiveOption(_ context.Context, o domain.MotiveOption) (domain.MotiveOption, error) {
	if err := o.Validate(); err != nil {
		return domain.MotiveOption{}, err
	}
	o.ID = int64(len(f.options) + 1)
	f.options = append(f.options, o)
	return o, nil
}

func (f *fakeSurvey) MotiveOptions(_ context.Context, c domain.MotiveCategory) ([]domain.MotiveOption, error) {
	if err := domain.ValidateMotiveCategory(c); err != nil {
		return nil, err
	}
	return f.options, nil
}

type fakeDashboard struct{}

func (fakeDashboard) V1(_ context.Context, operator string) (stats.ResultV1, error) {
	return stats.ResultV1{Operator: operator}, nil
}

func (fakeDashboard) V2(_ context.Context, operator string) (stats.ResultV2, error) {
	return stats.ResultV2{Operator: operator}, nil
}

type fakeLive struct {
	ready bool
}

func (f *fakeLive) SnapshotV1(operator string) (stats.ResultV1, bool) {
	return stats.ResultV1{Operator: operator}, f.ready
}

func (f *fakeLive) SnapshotV2(operator string) (stats.ResultV2, bool) {
	return stats.ResultV2{Operator: operator}, f.ready
}

type fakeRegistry struct {
	record domain.CompanyRecord
	err    error
}

func (f *fakeRegistry) LookupCUI(context.Context, string) (domain.CompanyRecord, error) {
	return f.record, f.err
}

type fixture struct {
	server   *httptest.Server
	survey   *fakeSurvey
	live     *fakeLive
	registry *fakeRegistry
	token    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	survey := &fakeSurvey{}
	live := &fakeLive{}
	registry := &fakeRegistry{}
	authn := authsvc.New([]string{"ioana"}, "parola")

	srv := New(survey, fakeDashboard{}, live, registry, authn)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	token, _, err := authn.Login("ioana", "parola")
	require.NoError(t, err)

	return &fixture{server: ts, survey: survey, live: live, registry: registry, token: token}
}

func (f *fixture) do(t *testing.T, method, path string, body any, authed bool) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	if authed {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/healthz", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginAndToken(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/login", loginRequest{Username: "IOANA", Password: "parola"}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[loginResponse](t, resp)
	require.NotEmpty(t, body.Token)
	require.Equal(t, "ioana", body.Operator)

	resp = f.do(t, http.MethodPost, "/login", loginRequest{Username: "ioana", Password: "gresit"}, false)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/stats", nil, false)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestExtractTooShort(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodPost, "/extract", extractRequest{Text: "CUI 123"}, true)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestExtractNotFound(t *testing.T) {
	f := newFixture(t)
	long := make([]byte, 0, 200)
	for i := 0; i < 40; i++ {
		long = append(long, "lorem "...)
	}
	resp := f.do(t, http.MethodPost, "/extract", extractRequest{Text: string(long)}, true)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExtractSuccess(t *testing.T) {
	f := newFixture(t)
	text := "Targetare.ro ACME PROD SRL\nCUI 12345678\nCAEN 6311 - Prelucrarea datelor\n" +
		"Adresa Municipiul Cluj-Napoca, Jud. Cluj\nTop firme din judet\nAdministrator GDPR Ion Popescu\n"
	resp := f.do(t, http.MethodPost, "/extract", extractRequest{Text: text}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rec := decode[domain.CompanyRecord](t, resp)
	require.Equal(t, "12345678", rec.CUI)
	require.Equal(t, "ACME PROD SRL", rec.Name)
	require.Equal(t, "Cluj-Napoca", rec.Locality)
}

func TestLookupNotFound(t *testing.T) {
	f := newFixture(t)
	f.registry.err = ports.ErrNotFound
	resp := f.do(t, http.MethodPost, "/lookup", lookupRequest{CUI: "RO123456"}, true)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLookupSuccess(t *testing.T) {
	f := newFixture(t)
	f.registry.record = domain.CompanyRecord{CUI: "123456", Name: "FIRMA SRL"}
	resp := f.do(t, http.MethodPost, "/lookup", lookupRequest{CUI: "RO 12-34-56"}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[domain.CompanyRecord](t, resp)
	require.Equal(t, "FIRMA SRL", rec.Name)
}

func TestCheckCUI(t *testing.T) {
	f := newFixture(t)
	f.survey.exists = true
	resp := f.do(t, http.MethodGet, "/responses/check?cui=12345678", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]bool](t, resp)
	require.True(t, body["exists"])
}

func TestSubmitForcesOperatorFromSession(t *testing.T) {
	f := newFixture(t)
	req := submitRequest{
		Schema:      "v1",
		CUI:         "12345678",
		CompanyName: "ACME PROD SRL",
		V1:          &answersV1Request{ExpenseShare: "10-20%"},
	}
	resp := f.do(t, http.MethodPost, "/responses", req, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decode[map[string]int64](t, resp)
	require.Equal(t, int64(42), body["id"])
	require.Equal(t, "ioana", f.survey.submitted.Operator)
	require.Equal(t, domain.SchemaV1, f.survey.submitted.Schema)
}

func TestSubmitRejectsMismatchedPayload(t *testing.T) {
	f := newFixture(t)
	req := submitRequest{
		Schema:      "v1",
		CUI:         "12345678",
		CompanyName: "ACME PROD SRL",
		V2:          &answersV2Request{},
	}
	resp := f.do(t, http.MethodPost, "/responses", req, true)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestStatsSchemaSelection(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/stats?schema=v2&operator=ioana", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v2 := decode[stats.ResultV2](t, resp)
	require.Equal(t, "ioana", v2.Operator)

	resp = f.do(t, http.MethodGet, "/stats", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v1 := decode[stats.ResultV1](t, resp)
	require.Equal(t, stats.AllOperators, v1.Operator)

	resp = f.do(t, http.MethodGet, "/stats?schema=v9", nil, true)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLiveStatsBeforeFirstPoll(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/stats/live", nil, true)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	f.live.ready = true
	resp = f.do(t, http.MethodGet, "/stats/live?schema=v2", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMotiveOptionsRoundTrip(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/motive-options", addMotiveOptionRequest{
		Category: string(domain.MotiveDrop),
		Label:    "Costul este prea mare",
	}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[domain.MotiveOption](t, resp)
	require.True(t, created.IsCustom)

	resp = f.do(t, http.MethodGet, "/motive-options?category=renunta_contabil", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	options := decode[[]domain.MotiveOption](t, resp)
	require.Len(t, options, 1)

	resp = f.do(t, http.MethodGet, "/motive-options?category=altceva", nil, true)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
