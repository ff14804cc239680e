package reparthttp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/coprodesk/coprodesk/internal/budget"
	"github.com/coprodesk/coprodesk/internal/repartition"
	repartbuild "github.com/coprodesk/coprodesk/internal/repartition/build"
	"github.com/coprodesk/coprodesk/jobs"
)

type fakeUnits struct {
	units []repartition.Unit
}

func (f *fakeUnits) NormalizedUnits(ctx context.Context) ([]repartition.Unit, error) {
	return f.units, nil
}

type fakeBudgets struct {
	lines []budget.Line
}

func (f *fakeBudgets) ListYear(ctx context.Context, year int) ([]budget.Line, error) {
	return f.lines, nil
}

type fakeExpenses struct {
	totals map[string]float64
}

func (f *fakeExpenses) RealTotalsByClass(ctx context.Context, year int) (map[string]float64, error) {
	return f.totals, nil
}

type fakePDF struct {
	html string
}

func (f *fakePDF) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	f.html = html
	return []byte("%PDF-1.4 fake"), nil
}

type fakeQueue struct {
	payloads []jobs.NoticesRenderPayload
	err      error
}

func (f *fakeQueue) EnqueueNoticesRender(ctx context.Context, payload jobs.NoticesRenderPayload) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.payloads = append(f.payloads, payload)
	return &asynq.TaskInfo{ID: "task-1", Queue: jobs.QueueDefault}, nil
}

func testServer(t *testing.T, pdf PDFRenderer) (*httptest.Server, *fakePDF) {
	t.Helper()
	units := &fakeUnits{units: []repartition.Unit{
		{Lot: "1", Owner: "Dupont", Shares: map[string]float64{"tantieme_general": 6000}},
		{Lot: "2", Owner: "Martin", Shares: map[string]float64{"tantieme_general": 4000}},
	}}
	budgets := &fakeBudgets{lines: []budget.Line{
		{ID: 1, Account: "615", Label: "Entretien", Amount: 1000, Year: 2025, Class: "1A"},
	}}
	expenses := &fakeExpenses{totals: map[string]float64{"1A": 1200}}

	var recorder *fakePDF
	if pdf == nil {
		recorder = &fakePDF{}
		pdf = recorder
	}
	builder := repartbuild.NewBuilder(repartition.DefaultDeed(), units, budgets, expenses)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), builder, pdf, &fakeQueue{}, Defaults{
		Year:         2025,
		CallsPerYear: 4,
		ReserveRate:  5,
	})
	r := chi.NewRouter()
	r.Route("/repartition", h.MountRoutes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, recorder
}

func getJSON(t *testing.T, url string, dest any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

func TestCallsSheetSplitsProportionally(t *testing.T) {
	srv, _ := testServer(t, nil)

	var body struct {
		Quarter string `json:"quarter"`
		Report  struct {
			Units []struct {
				Lot    string  `json:"lot"`
				Annual float64 `json:"annual"`
				Call   float64 `json:"call"`
				Due    float64 `json:"due"`
			} `json:"units"`
			Totals struct {
				Annual float64 `json:"annual"`
			} `json:"totals"`
			ReserveAnnual float64 `json:"reserve_annual"`
		} `json:"report"`
	}
	getJSON(t, srv.URL+"/repartition/calls?year=2025&quarter=T2", &body)

	if body.Quarter != "T2" {
		t.Fatalf("quarter label: got %q", body.Quarter)
	}
	if len(body.Report.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(body.Report.Units))
	}
	if body.Report.Units[0].Annual != 600 || body.Report.Units[1].Annual != 400 {
		t.Fatalf("annual split: got %v / %v", body.Report.Units[0].Annual, body.Report.Units[1].Annual)
	}
	if body.Report.Units[0].Call != 150 {
		t.Fatalf("quarterly call: got %v", body.Report.Units[0].Call)
	}
	if body.Report.ReserveAnnual != 50 {
		t.Fatalf("reserve annual: got %v", body.Report.ReserveAnnual)
	}
}

func TestCallsRejectsBadParams(t *testing.T) {
	srv, _ := testServer(t, nil)
	for _, query := range []string{
		"?quarter=T9",
		"?calls_per_year=5",
		"?reserve_rate=-1",
		"?year=1850",
		"?calls_per_year=2&quarter=T3",
	} {
		resp, err := http.Get(srv.URL + "/repartition/calls" + query)
		if err != nil {
			t.Fatalf("GET %s: %v", query, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", query, resp.StatusCode)
		}
	}
}

func TestSettlementClassifiesUnits(t *testing.T) {
	srv, _ := testServer(t, nil)

	var body struct {
		Report struct {
			Units []struct {
				Lot     string  `json:"lot"`
				Called  float64 `json:"called"`
				Real    float64 `json:"real"`
				Balance float64 `json:"balance"`
				Status  string  `json:"status"`
			} `json:"units"`
			Totals struct {
				ToCollect float64 `json:"to_collect"`
				ToRefund  float64 `json:"to_refund"`
			} `json:"totals"`
		} `json:"report"`
	}
	getJSON(t, srv.URL+"/repartition/settlement?year=2025&calls_issued=4", &body)

	// Budget 1000 fully called; real spend 1200; both prorated 60/40.
	u := body.Report.Units[0]
	if u.Called != 600 || u.Real != 720 || u.Balance != 120 || u.Status != "OWES" {
		t.Fatalf("unit 1 settlement: got %+v", u)
	}
	if body.Report.Totals.ToCollect != 200 || body.Report.Totals.ToRefund != 0 {
		t.Fatalf("totals: got %+v", body.Report.Totals)
	}
}

func TestCallsExportIsFrenchCSV(t *testing.T) {
	srv, _ := testServer(t, nil)

	resp, err := http.Get(srv.URL + "/repartition/calls/export.csv?year=2025&quarter=1")
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type %q", ct)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	out := string(raw)
	if !strings.HasPrefix(out, "\uFEFF") {
		t.Fatal("export must start with a UTF-8 BOM")
	}
	if !strings.Contains(out, ";") {
		t.Fatal("export must be semicolon separated")
	}
	if !strings.Contains(out, "600,00") {
		t.Fatalf("amounts must use comma decimals, got:\n%s", out)
	}
	if !strings.Contains(out, "TOTAL") {
		t.Fatal("export must end with a totals row")
	}
}

func TestCallNoticeRendersPDFForOneLot(t *testing.T) {
	srv, pdf := testServer(t, nil)

	resp, err := http.Get(srv.URL + "/repartition/calls/notice.pdf?lot=1&quarter=T1")
	if err != nil {
		t.Fatalf("GET notice: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("notice status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type %q", ct)
	}
	if !strings.Contains(pdf.html, "Dupont") || !strings.Contains(pdf.html, "Appel de fonds T1 2025") {
		t.Fatalf("notice html missing unit data:\n%s", pdf.html)
	}

	byPath, err := http.Get(srv.URL + "/repartition/calls/2/notice.pdf?quarter=T1")
	if err != nil {
		t.Fatalf("GET notice by path: %v", err)
	}
	byPath.Body.Close()
	if byPath.StatusCode != http.StatusOK {
		t.Fatalf("notice by path status %d", byPath.StatusCode)
	}

	missing, err := http.Get(srv.URL + "/repartition/calls/notice.pdf?lot=99")
	if err != nil {
		t.Fatalf("GET missing notice: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown lot: expected 404, got %d", missing.StatusCode)
	}
}

func TestNoticeBatchEnqueuesTask(t *testing.T) {
	units := &fakeUnits{units: []repartition.Unit{
		{Lot: "1", Owner: "Dupont", Shares: map[string]float64{"tantieme_general": 6000}},
	}}
	budgets := &fakeBudgets{lines: []budget.Line{
		{ID: 1, Account: "615", Label: "Entretien", Amount: 1000, Year: 2025, Class: "1A"},
	}}
	expenses := &fakeExpenses{totals: map[string]float64{}}
	queue := &fakeQueue{}
	builder := repartbuild.NewBuilder(repartition.DefaultDeed(), units, budgets, expenses)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), builder, &fakePDF{}, queue, Defaults{
		Year:         2025,
		CallsPerYear: 4,
		ReserveRate:  5,
	})
	r := chi.NewRouter()
	r.Route("/repartition", h.MountRoutes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/repartition/calls/notices?quarter=T2", "application/json", nil)
	if err != nil {
		t.Fatalf("POST notices: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if len(queue.payloads) != 1 {
		t.Fatalf("expected one enqueued batch, got %d", len(queue.payloads))
	}
	got := queue.payloads[0]
	if got.Year != 2025 || got.Quarter != 2 || got.CallsPerYear != 4 {
		t.Fatalf("unexpected payload: %+v", got)
	}

	unqueued := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), builder, &fakePDF{}, nil, Defaults{Year: 2025, CallsPerYear: 4, ReserveRate: 5})
	r2 := chi.NewRouter()
	r2.Route("/repartition", unqueued.MountRoutes)
	srv2 := httptest.NewServer(r2)
	t.Cleanup(srv2.Close)
	resp2, err := http.Post(srv2.URL+"/repartition/calls/notices", "application/json", nil)
	if err != nil {
		t.Fatalf("POST notices without queue: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a queue, got %d", resp2.StatusCode)
	}
}
