package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffquote/internal/adapters/impexp"
	"staffquote/internal/adapters/persistence"
	"staffquote/internal/adapters/telemetry"
	"staffquote/internal/domain"
	"staffquote/internal/holidays"
	"staffquote/internal/service"
)

func newTestRouter(t *testing.T) *API {
	t.Helper()
	return newTestRouterWithOptions(t, Options{AllowAnyCORSOrigin: true})
}

func newTestRouterWithOptions(t *testing.T, opts Options) *API {
	t.Helper()
	repo, err := persistence.NewFileRepository(filepath.Join(t.TempDir(), "api-data.json"))
	require.NoError(t, err)
	set := holidays.NewNamedFixed(holidays.Holiday{Date: time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC), Name: "Founders Day"})
	svc, err := service.New(repo, telemetry.NewNoopTelemetry(), impexp.New(), set)
	require.NoError(t, err)
	opts.Closer = repo
	api := NewRouter(svc, opts, zerolog.Nop())
	t.Cleanup(func() { _ = api.Close() })
	return api
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch value := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(value))
	default:
		payload, err := json.Marshal(value)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &value), rec.Body.String())
	return value
}

func createProfessional(t *testing.T, router http.Handler, name string, cost float64) domain.Professional {
	t.Helper()
	rec := doRequest(t, router, http.MethodPost, "/api/professionals", map[string]any{"name": name, "role": "Dev", "hourly_cost": cost})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.Professional](t, rec)
}

func createProject(t *testing.T, router http.Handler, body map[string]any) domain.Project {
	t.Helper()
	rec := doRequest(t, router, http.MethodPost, "/api/projects", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.Project](t, rec)
}

func TestHealthz(t *testing.T) {
	rec := doRequest(t, newTestRouter(t), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, rec))
}

func TestUnknownRoutesAndMethods(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decode[map[string]string](t, rec)["error"])

	rec = doRequest(t, router, http.MethodPut, "/api/projects", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestProfessionalRoutes(t *testing.T) {
	router := newTestRouter(t)
	ana := createProfessional(t, router, "Ana", 100)

	rec := doRequest(t, router, http.MethodGet, "/api/professionals/"+ana.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ana", decode[domain.Professional](t, rec).Name)

	rec = doRequest(t, router, http.MethodPatch, "/api/professionals/"+ana.ID, map[string]any{"hourly_cost": 120})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 120.0, decode[domain.Professional](t, rec).HourlyCost)

	rec = doRequest(t, router, http.MethodPost, "/api/professionals", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "professional name is required", decode[map[string]string](t, rec)["error"])

	rec = doRequest(t, router, http.MethodPost, "/api/professionals", map[string]any{"name": "X", "salary": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON", decode[map[string]string](t, rec)["error"])

	rec = doRequest(t, router, http.MethodGet, "/api/professionals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Professional](t, rec), 1)

	rec = doRequest(t, router, http.MethodDelete, "/api/professionals/"+ana.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doRequest(t, router, http.MethodGet, "/api/professionals/"+ana.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportProfessionalsRoute(t *testing.T) {
	router := newTestRouter(t)
	csv := "name,role,level,is_vacancy,hourly_cost\nAna,Dev,Senior,false,100\nBob,QA,Junior,true,oops\n"

	rec := doRequest(t, router, http.MethodPost, "/api/professionals/import", csv)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[domain.ImportResult](t, rec)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Errors)

	rec = doRequest(t, router, http.MethodPost, "/api/professionals/import", "nope\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestBodyLimit(t *testing.T) {
	router := newTestRouter(t)
	huge := `{"name":"` + strings.Repeat("a", int(maxJSONBodyBytes)) + `"}`

	rec := doRequest(t, router, http.MethodPost, "/api/professionals", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "request body too large")

	rec = doRequest(t, router, http.MethodPost, "/api/professionals/import", strings.Repeat("a", int(maxJSONBodyBytes)+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/professionals", `{"name":"Ana","unknown":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON", decode[map[string]string](t, rec)["error"])
}

func TestDecodeJSONReportsOversizedBody(t *testing.T) {
	huge := `{"name":"` + strings.Repeat("a", int(maxJSONBodyBytes)) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))
	var target map[string]string

	err := decodeJSON(httptest.NewRecorder(), req, &target)
	require.Error(t, err)
	assert.True(t, isBodyTooLarge(err), "got %T: %v", err, err)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ana"}`))
	require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &target))
	assert.Equal(t, "Ana", target["name"])
}

func TestWriteJSONLogsEncodeFailure(t *testing.T) {
	var buf bytes.Buffer
	api := &API{log: zerolog.New(&buf)}
	rec := httptest.NewRecorder()

	api.writeJSON(rec, http.StatusOK, map[string]any{"broken": make(chan int)})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "write json failed", line["message"])
	assert.Equal(t, 200.0, line["status"])
	assert.Equal(t, "map[string]interface {}", line["body_type"])
}

func TestProjectFlow(t *testing.T) {
	router := newTestRouter(t)
	ana := createProfessional(t, router, "Ana", 100)
	project := createProject(t, router, map[string]any{
		"name": "Portal", "start_date": "2025-01-15", "duration_months": 1, "tax_rate": 10, "margin_rate": 20,
	})

	rec := doRequest(t, router, http.MethodPost, "/api/projects/"+project.ID+"/allocations", map[string]any{"professional_id": ana.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	allocation := decode[domain.Allocation](t, rec)
	assert.Equal(t, 125.0, allocation.SellingHourlyRate)

	rec = doRequest(t, router, http.MethodPost, "/api/projects/"+project.ID+"/allocations", map[string]any{"professional_id": ana.ID})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, router, http.MethodPatch, "/api/projects/"+project.ID+"/allocations", map[string]any{
		"updates": []map[string]any{{"allocation_id": allocation.ID, "week_number": 2, "hours_allocated": 40}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "available in week 2")

	rec = doRequest(t, router, http.MethodPatch, "/api/projects/"+project.ID+"/allocations", map[string]any{
		"updates": []map[string]any{{"allocation_id": allocation.ID, "week_number": 1, "hours_allocated": 20}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, "/api/projects/"+project.ID+"/timeline", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	timeline := decode[[]map[string]any](t, rec)
	require.Len(t, timeline, 3)
	assert.Equal(t, "2025-01-13", timeline[0]["week_start"])
	assert.Equal(t, 32.0, timeline[1]["available_hours"])

	rec = doRequest(t, router, http.MethodGet, "/api/projects/"+project.ID+"/monthly-hours", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.MonthHours](t, rec), 1)

	rec = doRequest(t, router, http.MethodGet, "/api/projects/"+project.ID+"/pricing", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[domain.PricingSummary](t, rec)
	// 20 + 32 + 40 hours at 100 cost and 125 selling.
	assert.InDelta(t, 9200.0, summary.TotalCost, 1e-9)
	assert.InDelta(t, 11500.0, summary.TotalSelling, 1e-9)
	assert.InDelta(t, 12650.0, summary.FinalPrice, 1e-9)

	rec = doRequest(t, router, http.MethodGet, "/api/projects/"+project.ID+"/billing", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	table := decode[domain.BillingTable](t, rec)
	assert.Equal(t, []string{"Founders Day"}, table.Weeks[1].Holidays)
	assert.Equal(t, []float64{20, 32, 40}, table.Rows[0].Hours)

	rec = doRequest(t, router, http.MethodGet, "/api/projects/"+project.ID+"/allocations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Allocation](t, rec), 1)

	rec = doRequest(t, router, http.MethodDelete, "/api/projects/"+project.ID+"/allocations/"+allocation.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, http.MethodPatch, "/api/projects/"+project.ID, map[string]any{"name": "Portal v2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Portal v2", decode[domain.Project](t, rec).Name)

	rec = doRequest(t, router, http.MethodDelete, "/api/projects/"+project.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doRequest(t, router, http.MethodGet, "/api/projects/"+project.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProjectsQuery(t *testing.T) {
	router := newTestRouter(t)
	for _, name := range []string{"Alpha", "Beta", "alphabet"} {
		createProject(t, router, map[string]any{"name": name, "start_date": "2025-01-01", "duration_months": 1})
	}

	rec := doRequest(t, router, http.MethodGet, "/api/projects?search=alpha&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[domain.ProjectPage](t, rec)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Items, 1)

	rec = doRequest(t, router, http.MethodGet, "/api/projects?skip=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doRequest(t, router, http.MethodGet, "/api/projects?skip=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOfferRoutes(t *testing.T) {
	router := newTestRouter(t)
	ana := createProfessional(t, router, "Ana", 100)
	project := createProject(t, router, map[string]any{"name": "Offers", "start_date": "2025-01-15", "duration_months": 1})

	rec := doRequest(t, router, http.MethodPost, "/api/offers", map[string]any{
		"name": "Half", "items": []map[string]any{{"professional_id": ana.ID, "allocation_percentage": 50}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	offer := decode[domain.Offer](t, rec)

	rec = doRequest(t, router, http.MethodPost, "/api/offers", map[string]any{"name": "Half"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, router, http.MethodPut, "/api/offers/"+offer.ID, map[string]any{
		"name": "Half team", "items": []map[string]any{{"professional_id": ana.ID, "allocation_percentage": 50}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/projects/"+project.ID+"/offers", map[string]any{"offer_id": offer.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[domain.ApplyOfferResult](t, rec)
	assert.Equal(t, []string{"Ana"}, result.Added)
	assert.Equal(t, 3, result.WeeksSeeded)

	rec = doRequest(t, router, http.MethodGet, "/api/offers/"+offer.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Half team", decode[domain.Offer](t, rec).Name)

	rec = doRequest(t, router, http.MethodGet, "/api/offers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Offer](t, rec), 1)

	rec = doRequest(t, router, http.MethodDelete, "/api/offers/"+offer.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestOfferItemRoutes(t *testing.T) {
	router := newTestRouter(t)
	ana := createProfessional(t, router, "Ana", 100)
	rec := doRequest(t, router, http.MethodPost, "/api/offers", map[string]any{"name": "Items"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	offer := decode[domain.Offer](t, rec)
	base := "/api/offers/" + offer.ID + "/items"

	rec = doRequest(t, router, http.MethodPost, base, map[string]any{"professional_id": ana.ID, "allocation_percentage": 40})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, domain.OfferItem{ProfessionalID: ana.ID, AllocationPercentage: 40}, decode[domain.OfferItem](t, rec))

	rec = doRequest(t, router, http.MethodPost, base, map[string]any{"professional_id": ana.ID, "allocation_percentage": 40})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, router, http.MethodPut, base+"/"+ana.ID, map[string]any{"allocation_percentage": 80})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 80.0, decode[domain.OfferItem](t, rec).AllocationPercentage)

	rec = doRequest(t, router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.OfferItem](t, rec), 1)

	rec = doRequest(t, router, http.MethodDelete, base+"/"+ana.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doRequest(t, router, http.MethodDelete, base+"/"+ana.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doRequest(t, router, http.MethodGet, "/api/offers/missing/items", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportRoute(t *testing.T) {
	router := newTestRouter(t)
	ana := createProfessional(t, router, "Ana", 100)
	project := createProject(t, router, map[string]any{
		"name": "Export", "start_date": "2025-01-15", "duration_months": 1,
		"allocations": []map[string]any{{"professional_id": ana.ID}},
	})

	rec := doRequest(t, router, http.MethodGet, "/api/projects/"+project.ID+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `billing-`+project.ID+`.csv`)
	assert.Contains(t, rec.Body.String(), "Ana")

	rec = doRequest(t, router, http.MethodGet, "/api/projects/"+project.ID+"/export?format=msgpack", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	table, err := impexp.DecodeMsgpack(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Export", table.ProjectName)

	rec = doRequest(t, router, http.MethodGet, "/api/projects/"+project.ID+"/export?format=json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = doRequest(t, router, http.MethodGet, "/api/projects/"+project.ID+"/export?format=xlsx", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalendarWeeksRoute(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/calendar/weeks?start=2025-01-15&months=1&hours_per_day=6", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	weeks := decode[[]map[string]any](t, rec)
	require.Len(t, weeks, 3)
	assert.Equal(t, 24.0, weeks[1]["available_hours"])
	assert.Equal(t, []any{"2025-01-20"}, weeks[1]["holidays"])

	rec = doRequest(t, router, http.MethodGet, "/api/calendar/weeks?start=2025-01-15&months=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = doRequest(t, router, http.MethodGet, "/api/calendar/weeks?start=bad", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doRequest(t, router, http.MethodGet, "/api/calendar/weeks?start=2025-01-15&hours_per_day=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalendarHolidaysRoute(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/calendar/holidays?year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"year":2025,"holidays":[{"date":"2025-01-20","name":"Founders Day"}]}`, rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, "/api/calendar/holidays?year=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"year":2024,"holidays":[]}`, rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, "/api/calendar/holidays?year=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doRequest(t, router, http.MethodGet, "/api/calendar/holidays?year=99999", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS(t *testing.T) {
	router := newTestRouterWithOptions(t, Options{CORSAllowedOrigins: []string{"https://app.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", http.NoBody)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogging(t *testing.T) {
	repo, err := persistence.NewFileRepository(filepath.Join(t.TempDir(), "log-data.json"))
	require.NoError(t, err)
	svc, err := service.New(repo, telemetry.NewNoopTelemetry(), impexp.New(), nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	router := NewRouter(svc, Options{}, zerolog.New(&buf))

	doRequest(t, router, http.MethodGet, "/healthz", nil)
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "http request", line["message"])
	assert.Equal(t, "/healthz", line["path"])
	assert.Equal(t, 200.0, line["status"])
	assert.Equal(t, "httpapi", line["component"])
	assert.NoError(t, router.Close(), "a router without a closer closes cleanly")
}
