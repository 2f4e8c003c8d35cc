package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/appointment"
	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/db"
)

// newAppointmentService wires appointments to billing the way the server does.
func newAppointmentService(pool *pgxpool.Pool) *appointment.Service {
	tx := db.PoolTxRunner{Pool: pool}
	billingSvc := billing.NewService(billing.NewInvoiceRepo(pool), tx)
	payments := appointment.PaymentRecorderFunc(func(ctx context.Context, a *appointment.Appointment) error {
		ch := billing.AppointmentCharge{PatientID: a.PatientID, AppointmentID: a.ID, Reference: a.PaymentReference}
		if a.PaymentAmount != nil {
			ch.Amount = *a.PaymentAmount
		}
		if a.PaymentMethod != nil {
			ch.Method = *a.PaymentMethod
		}
		_, err := billingSvc.SettleAppointment(ctx, ch)
		return err
	})
	return appointment.NewService(appointment.NewAppointmentRepo(pool), payments, tx, zerolog.Nop())
}

func countInvoices(t *testing.T, ctx context.Context, pool *pgxpool.Pool, appointmentID uuid.UUID) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoice WHERE appointment_id = $1`, appointmentID).Scan(&n); err != nil {
		t.Fatalf("count invoices: %v", err)
	}
	return n
}

func floatPtr(v float64) *float64 { return &v }

func TestAppointmentLifecycle(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	p := createPatient(t, ctx, pool)
	svc := newAppointmentService(pool)

	a := &appointment.Appointment{PatientID: p.ID, Fee: 5000}
	if err := svc.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("create appointment: %v", err)
	}

	t.Run("RecordPaymentIssuesPaidInvoice", func(t *testing.T) {
		got, err := svc.Apply(ctx, a.ID, appointment.ActionRequest{Action: appointment.ActionRecordPayment, Amount: floatPtr(5000), Method: "cash"})
		if err != nil {
			t.Fatalf("record payment: %v", err)
		}
		if got.Status != appointment.StatusPaid {
			t.Fatalf("expected paid, got %s", got.Status)
		}

		var status string
		var total, paid float64
		err = pool.QueryRow(ctx, `SELECT status, total, amount_paid FROM invoice WHERE appointment_id = $1`, a.ID).Scan(&status, &total, &paid)
		if err != nil {
			t.Fatalf("load invoice: %v", err)
		}
		if status != string(billing.InvoicePaid) || total != 5000 || paid != 5000 {
			t.Errorf("unexpected invoice: status=%s total=%v paid=%v", status, total, paid)
		}
	})

	t.Run("FullWorkflow", func(t *testing.T) {
		staffID := uuid.New()
		if _, err := pool.Exec(ctx, `INSERT INTO staff (id, staff_number, first_name, last_name, role) VALUES ($1, $2, 'Kemi', 'Ade', 'doctor')`,
			staffID, "ST-"+staffID.String()[:8]); err != nil {
			t.Fatalf("insert staff: %v", err)
		}
		at := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
		steps := []appointment.ActionRequest{
			{Action: appointment.ActionAllocate, StaffID: &staffID, ScheduledAt: &at},
			{Action: appointment.ActionStart},
			{Action: appointment.ActionFinish},
		}
		for _, step := range steps {
			if _, err := svc.Apply(ctx, a.ID, step); err != nil {
				t.Fatalf("%s: %v", step.Action, err)
			}
		}

		stored, err := svc.GetAppointment(ctx, a.ID)
		if err != nil {
			t.Fatalf("get appointment: %v", err)
		}
		if stored.Status != appointment.StatusCompleted {
			t.Errorf("expected completed, got %s", stored.Status)
		}
		if stored.StaffID == nil || *stored.StaffID != staffID {
			t.Error("expected allocated staff to be persisted")
		}
		if stored.StartedAt == nil || stored.CompletedAt == nil {
			t.Error("expected workflow timestamps to be persisted")
		}
	})
}

func TestAppointmentTransition_StaleStatusConflicts(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	p := createPatient(t, ctx, pool)
	repo := appointment.NewAppointmentRepo(pool)

	a := &appointment.Appointment{PatientID: p.ID, Fee: 1000, Status: appointment.StatusPendingPayment}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Now()
	first := *a
	first.Status = appointment.StatusPaid
	first.PaidAt = &now
	if err := repo.Transition(ctx, &first, appointment.StatusPendingPayment); err != nil {
		t.Fatalf("first transition: %v", err)
	}

	second := *a
	second.Status = appointment.StatusCancelled
	second.CancelledAt = &now
	err := repo.Transition(ctx, &second, appointment.StatusPendingPayment)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict for stale status, got %v", err)
	}

	stored, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != appointment.StatusPaid || stored.CancelledAt != nil {
		t.Errorf("losing transition leaked into the row: %+v", stored)
	}
}

func TestAppointmentRecordPayment_ConcurrentRequestsBillOnce(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	p := createPatient(t, ctx, pool)
	svc := newAppointmentService(pool)

	a := &appointment.Appointment{PatientID: p.ID, Fee: 2500}
	if err := svc.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("create appointment: %v", err)
	}

	const workers = 5
	var wg sync.WaitGroup
	errs := make([]error, workers)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Apply(ctx, a.ID, appointment.ActionRequest{Action: appointment.ActionRecordPayment, Method: "card"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperr.ErrConflict):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one payment to win, got %d", succeeded)
	}
	if n := countInvoices(t, ctx, pool, a.ID); n != 1 {
		t.Errorf("expected one invoice, got %d", n)
	}
}

func TestAppointmentRecordPayment_BillingFailureRollsBack(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	p := createPatient(t, ctx, pool)

	failing := appointment.PaymentRecorderFunc(func(context.Context, *appointment.Appointment) error {
		return errors.New("ledger offline")
	})
	svc := appointment.NewService(appointment.NewAppointmentRepo(pool), failing, db.PoolTxRunner{Pool: pool}, zerolog.Nop())

	a := &appointment.Appointment{PatientID: p.ID, Fee: 700}
	if err := svc.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	if _, err := svc.Apply(ctx, a.ID, appointment.ActionRequest{Action: appointment.ActionRecordPayment, Method: "cash"}); err == nil {
		t.Fatal("expected billing failure to surface")
	}

	stored, err := svc.GetAppointment(ctx, a.ID)
	if err != nil {
		t.Fatalf("get appointment: %v", err)
	}
	if stored.Status != appointment.StatusPendingPayment || stored.PaidAt != nil {
		t.Errorf("expected transition to roll back, got status %s", stored.Status)
	}
}

func TestAppointmentCancelUnpaidBefore(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	p := createPatient(t, ctx, pool)
	svc := newAppointmentService(pool)
	repo := appointment.NewAppointmentRepo(pool)

	stale := &appointment.Appointment{PatientID: p.ID, Fee: 300}
	paid := &appointment.Appointment{PatientID: p.ID, Fee: 300}
	for _, a := range []*appointment.Appointment{stale, paid} {
		if err := svc.CreateAppointment(ctx, a); err != nil {
			t.Fatalf("create appointment: %v", err)
		}
	}
	if _, err := svc.Apply(ctx, paid.ID, appointment.ActionRequest{Action: appointment.ActionRecordPayment, Method: "transfer"}); err != nil {
		t.Fatalf("record payment: %v", err)
	}

	n, err := repo.CancelUnpaidBefore(ctx, time.Now().Add(time.Minute), "payment window elapsed")
	if err != nil {
		t.Fatalf("cancel unpaid: %v", err)
	}
	if n < 1 {
		t.Fatalf("expected at least one cancellation, got %d", n)
	}

	got, err := repo.GetByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("get stale: %v", err)
	}
	if got.Status != appointment.StatusCancelled || got.CancelledAt == nil {
		t.Errorf("expected stale appointment cancelled, got %s", got.Status)
	}
	if got.CancelReason == nil || *got.CancelReason != "payment window elapsed" {
		t.Error("expected cancel reason to be stored")
	}

	got, err = repo.GetByID(ctx, paid.ID)
	if err != nil {
		t.Fatalf("get paid: %v", err)
	}
	if got.Status != appointment.StatusPaid {
		t.Errorf("paid appointment must not be cancelled, got %s", got.Status)
	}
}
