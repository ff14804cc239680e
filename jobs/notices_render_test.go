package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/coprodesk/coprodesk/internal/budget"
	"github.com/coprodesk/coprodesk/internal/repartition"
	repartbuild "github.com/coprodesk/coprodesk/internal/repartition/build"
)

type fakeUnits struct{}

func (fakeUnits) NormalizedUnits(ctx context.Context) ([]repartition.Unit, error) {
	return []repartition.Unit{
		{Lot: "1", Owner: "Dupont", Shares: map[string]float64{"tantieme_general": 6000}},
		{Lot: "2", Owner: "Martin", Shares: map[string]float64{"tantieme_general": 4000}},
	}, nil
}

type fakeBudgets struct{}

func (fakeBudgets) ListYear(ctx context.Context, year int) ([]budget.Line, error) {
	return []budget.Line{
		{ID: 1, Account: "615", Label: "Entretien", Amount: 1000, Year: year, Class: "1A"},
	}, nil
}

type fakeExpenses struct{}

func (fakeExpenses) RealTotalsByClass(ctx context.Context, year int) (map[string]float64, error) {
	return map[string]float64{}, nil
}

type fakePDF struct {
	rendered []string
}

func (f *fakePDF) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	f.rendered = append(f.rendered, html)
	return []byte("%PDF-1.4 fake"), nil
}

type memStore struct {
	files map[string][]byte
}

func (m *memStore) Save(ctx context.Context, filename string, pdf []byte) error {
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[filename] = pdf
	return nil
}

func testNoticesJob(pdf *fakePDF, store *memStore) *NoticesRenderJob {
	builder := repartbuild.NewBuilder(repartition.DefaultDeed(), fakeUnits{}, fakeBudgets{}, fakeExpenses{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewNoticesRenderJob(builder, pdf, store, logger, nil)
}

func TestNoticesRenderStoresOnePDFPerUnit(t *testing.T) {
	pdf := &fakePDF{}
	store := &memStore{}
	job := testNoticesJob(pdf, store)

	task, err := NewNoticesRenderTask(NoticesRenderPayload{
		Year:         2025,
		Quarter:      2,
		CallsPerYear: 4,
		ReserveRate:  5,
	})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(store.files) != 2 {
		t.Fatalf("expected 2 stored notices, got %d", len(store.files))
	}
	var sawLot1 bool
	for name := range store.files {
		if !strings.Contains(name, "appel_T2_2025_lot_") {
			t.Fatalf("unexpected notice filename %q", name)
		}
		if strings.HasSuffix(name, "_lot_1.pdf") {
			sawLot1 = true
		}
	}
	if !sawLot1 {
		t.Fatal("expected a notice for lot 1")
	}
	if len(pdf.rendered) != 2 {
		t.Fatalf("expected 2 rendered documents, got %d", len(pdf.rendered))
	}
	if !strings.Contains(pdf.rendered[0], "Dupont") {
		t.Fatalf("first notice should name the owner:\n%s", pdf.rendered[0])
	}
}

func TestNoticesRenderSkipsRetryOnBadPayload(t *testing.T) {
	job := testNoticesJob(&fakePDF{}, &memStore{})

	task := asynq.NewTask(TaskNoticesRender, []byte("not json"))
	if err := job.Handle(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for malformed payload, got %v", err)
	}

	bad, _ := json.Marshal(NoticesRenderPayload{Year: 2025, Quarter: 9, CallsPerYear: 4})
	task = asynq.NewTask(TaskNoticesRender, bad)
	if err := job.Handle(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for impossible quarter, got %v", err)
	}
}
