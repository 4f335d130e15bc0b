package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fleetops/internal/adapters/export"
	"fleetops/internal/adapters/objectstore"
	"fleetops/internal/domain"
	"fleetops/internal/services/auditlog"
	"fleetops/internal/services/compliance"
	"fleetops/internal/services/dashboard"
	"fleetops/internal/services/documents"
	"fleetops/internal/services/drones"
	"fleetops/internal/services/finance"
	"fleetops/internal/services/scheduler"
	"fleetops/internal/testutil"
)

type fakeDB struct{ err error }

func (f fakeDB) Ping(context.Context) error { return f.err }

type harness struct {
	srv     *httptest.Server
	mem     *testutil.Memory
	objects *testutil.Objects
}

func newHarness(t *testing.T, db Pinger) *harness {
	t.Helper()
	mem := testutil.NewMemory()
	objects := testutil.NewObjects()
	log := zap.NewNop()
	ai := &testutil.Assistant{Err: domain.ErrAssistantUnavailable}
	audit := auditlog.New(mem, log)

	comp := compliance.New(mem, mem, mem, ai, audit, log, 30)
	dr := drones.New(mem, audit, log)
	fin := finance.New(mem, audit, log, export.CSV{}, export.PDF{Company: "Fleet Ops"})
	sched := scheduler.New(mem, mem, mem, ai, audit, log, scheduler.DefaultRules())
	srv := New(Services{
		Compliance: comp,
		Documents:  documents.New(mem, objects, audit, log, 0),
		Drones:     dr,
		Finance:    fin,
		Scheduler:  sched,
		AuditLog:   audit,
		Dashboard:  dashboard.New(comp, dr, fin, sched, log, 30),
	}, db, log)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return &harness{srv: ts, mem: mem, objects: objects}
}

type result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (h *harness) do(t *testing.T, method, path string, body any) (int, result) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(ActorHeader, "captain")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, fakeDB{})
	code, res := h.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, res.Success)

	down := newHarness(t, fakeDB{err: errors.New("refused")})
	code, res = down.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, res.Success)
}

func TestRiskEndpoints(t *testing.T) {
	h := newHarness(t, nil)

	code, res := h.do(t, http.MethodPost, "/api/v1/compliance/risks", map[string]any{
		"title": "Mooring line parting", "likelihood": 4, "impact": 5,
	})
	require.Equal(t, http.StatusCreated, code, res.Error)
	var risk domain.Risk
	require.NoError(t, json.Unmarshal(res.Data, &risk))
	assert.Equal(t, domain.SeverityCritical, risk.Severity)

	code, res = h.do(t, http.MethodPost, "/api/v1/compliance/risks", map[string]any{
		"title": "Bad", "likelihood": 9, "impact": 1,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)

	code, _ = h.do(t, http.MethodGet, "/api/v1/compliance/risks/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, res = h.do(t, http.MethodGet, "/api/v1/compliance/risks/matrix", nil)
	require.Equal(t, http.StatusOK, code)
	var matrix map[string]int
	require.NoError(t, json.Unmarshal(res.Data, &matrix))
	assert.Equal(t, 1, matrix["critical"])

	require.NotEmpty(t, h.mem.AuditLogs)
	assert.Equal(t, "captain", h.mem.AuditLogs[0].Actor)
}

func TestUnknownFieldsRejected(t *testing.T) {
	h := newHarness(t, nil)
	code, _ := h.do(t, http.MethodPost, "/api/v1/drones", map[string]any{"name": "D1", "colour": "red"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAuditEvaluationFallsBack(t *testing.T) {
	h := newHarness(t, nil)
	code, res := h.do(t, http.MethodPost, "/api/v1/compliance/audits", map[string]any{
		"title": "ISM annual",
		"items": []map[string]any{
			{"section": "Bridge", "question": "Charts corrected", "status": "ok"},
			{"section": "Engine", "question": "Oil record book", "status": "issue"},
		},
	})
	require.Equal(t, http.StatusCreated, code, res.Error)
	var audit domain.Audit
	require.NoError(t, json.Unmarshal(res.Data, &audit))

	code, res = h.do(t, http.MethodPost, "/api/v1/compliance/audits/"+audit.ID+"/evaluate", nil)
	require.Equal(t, http.StatusOK, code, res.Error)
	var ev domain.Evaluation
	require.NoError(t, json.Unmarshal(res.Data, &ev))
	assert.Equal(t, 50.0, ev.Score)
	assert.Equal(t, "fallback", ev.Source)
}

func TestDocumentUploadAndDownload(t *testing.T) {
	h := newHarness(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("category", "Certificates"))
	fw, err := mw.CreateFormFile("file", "smc.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4 safety management certificate"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(h.srv.URL+"/api/v1/documents", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var res result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	var doc domain.Document
	require.NoError(t, json.Unmarshal(res.Data, &doc))
	assert.Equal(t, "certificates", doc.Category)
	assert.True(t, h.objects.Seekable[doc.ObjectKey])

	dl, err := http.Get(h.srv.URL + "/api/v1/documents/" + doc.ID + "/content")
	require.NoError(t, err)
	defer dl.Body.Close()
	body, _ := io.ReadAll(dl.Body)
	assert.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Contains(t, string(body), "safety management certificate")
	assert.Contains(t, dl.Header.Get("Content-Disposition"), "smc.pdf")

	code, res := h.do(t, http.MethodGet, "/api/v1/documents/"+doc.ID+"/url", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(res.Data), "https://objects.test/certificates/")
}

func TestDocumentUploadWithoutStorage(t *testing.T) {
	h := newHarness(t, nil)
	h.objects.PutErr = objectstore.ErrNotConfigured

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "smc.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(h.srv.URL+"/api/v1/documents", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var res result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Contains(t, res.Error, "object storage is not configured")
}

func TestDocumentUploadRejectsType(t *testing.T) {
	h := newHarness(t, nil)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "payload.exe")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("MZ"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(h.srv.URL+"/api/v1/documents", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, h.objects.Data)
}

func TestInvoiceFlowAndExport(t *testing.T) {
	h := newHarness(t, nil)
	code, res := h.do(t, http.MethodPost, "/api/v1/finance/invoices", map[string]any{
		"customer": "Nordic Charter AB",
		"currency": "eur",
		"lines":    []map[string]any{{"description": "Hull survey", "quantity": 2, "unit_price": 45000}},
	})
	require.Equal(t, http.StatusCreated, code, res.Error)
	var inv domain.Invoice
	require.NoError(t, json.Unmarshal(res.Data, &inv))
	assert.Equal(t, domain.Cents(90000), inv.Subtotal)

	code, _ = h.do(t, http.MethodPost, "/api/v1/finance/invoices/"+inv.ID+"/status", map[string]any{"status": "paid"})
	assert.Equal(t, http.StatusConflict, code)

	for _, st := range []string{"sent", "paid"} {
		code, res = h.do(t, http.MethodPost, "/api/v1/finance/invoices/"+inv.ID+"/status", map[string]any{"status": st})
		require.Equal(t, http.StatusOK, code, res.Error)
	}
	assert.Len(t, h.mem.Transactions, 1)

	resp, err := http.Get(h.srv.URL + "/api/v1/finance/invoices/export?format=csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
	assert.Contains(t, string(body), "Nordic Charter AB")

	code, _ = h.do(t, http.MethodGet, "/api/v1/finance/invoices/export?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTransactionsBadDate(t *testing.T) {
	h := newHarness(t, nil)
	code, _ := h.do(t, http.MethodGet, "/api/v1/finance/transactions?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSchedulerAssignAsync(t *testing.T) {
	h := newHarness(t, nil)
	code, res := h.do(t, http.MethodPost, "/api/v1/scheduler/tasks", map[string]any{
		"title": "Inspect lifeboat davits", "severity": "high",
	})
	require.Equal(t, http.StatusCreated, code, res.Error)
	var task domain.ScheduledTask
	require.NoError(t, json.Unmarshal(res.Data, &task))

	code, res = h.do(t, http.MethodPost, "/api/v1/scheduler/tasks/"+task.ID+"/assign?async=true", nil)
	require.Equal(t, http.StatusAccepted, code, res.Error)
	var job jobResponse
	require.NoError(t, json.Unmarshal(res.Data, &job))
	assert.Equal(t, "queued", job.Status)

	code, res = h.do(t, http.MethodGet, "/api/v1/scheduler/jobs/"+job.JobID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(res.Data), "queued")

	code, _ = h.do(t, http.MethodGet, "/api/v1/scheduler/plan?days=0", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestBreakdownFallback(t *testing.T) {
	h := newHarness(t, nil)
	code, res := h.do(t, http.MethodPost, "/api/v1/scheduler/breakdown", map[string]any{
		"goal": "Overhaul the port generator. Test the emergency fire pump.",
	})
	require.Equal(t, http.StatusOK, code, res.Error)
	var out breakdownResponse
	require.NoError(t, json.Unmarshal(res.Data, &out))
	assert.Equal(t, "fallback", out.Source)
	assert.Len(t, out.Tasks, 2)
	assert.Empty(t, h.mem.Tasks)
}

func TestDashboard(t *testing.T) {
	h := newHarness(t, nil)
	code, res := h.do(t, http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, code, res.Error)
	assert.Contains(t, string(res.Data), "risk_matrix")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(domain.ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.ErrFileTooLarge))
	assert.Equal(t, http.StatusConflict, statusFor(domain.ErrConflict))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(domain.ErrAssistantUnavailable))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(objectstore.ErrNotConfigured))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
