package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/citamed/citamed/internal/config"
	"github.com/citamed/citamed/internal/domain/appointment"
	"github.com/citamed/citamed/internal/domain/prescription"
	"github.com/citamed/citamed/internal/testutil"
)

func newTestEngine(t *testing.T, api *testutil.FakeAPI) *Engine {
	t.Helper()
	cfg := &config.Config{
		APIBaseURL:      api.URL(),
		Env:             "test",
		TokenFile:       filepath.Join(t.TempDir(), "token"),
		HTTPTimeoutSecs: 5,
		DosePollSecs:    1,
		LogLevel:        "error",
	}
	return New(cfg, zerolog.Nop())
}

func seedDoctor(api *testutil.FakeAPI) {
	api.Logins["doctor@citamed.test"] = testutil.LoginUser{
		Password: "secreto", UserID: 2, Name: "Doctor Demo", Role: "MEDICO",
	}
}

func seedPatient(api *testutil.FakeAPI) {
	api.Logins["paciente@citamed.test"] = testutil.LoginUser{
		Password: "secreto", UserID: 1, Name: "Paciente Demo", Role: "PACIENTE",
	}
}

func TestEngine_RequiresLogin(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()

	eng := newTestEngine(t, api)
	if _, found := eng.Session(); found {
		t.Fatal("fresh engine must start logged out")
	}
	if _, err := eng.Appointments(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestEngine_LoginPersistsAcrossRestart(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	seedDoctor(api)

	eng := newTestEngine(t, api)
	sess, err := eng.Login(context.Background(), "doctor@citamed.test", "secreto")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !sess.IsDoctor() || sess.Name != "Doctor Demo" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	// A second engine over the same config picks the stored token back up.
	restarted := New(eng.cfg, zerolog.Nop())
	sess2, found := restarted.Session()
	if !found || sess2.Name != sess.Name || sess2.Role != sess.Role {
		t.Fatalf("expected restored session, got %+v (found=%v)", sess2, found)
	}

	if err := eng.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, found := eng.Session(); found {
		t.Fatal("expected logged-out engine")
	}
}

func TestEngine_BadCredentials(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	seedDoctor(api)

	eng := newTestEngine(t, api)
	_, err := eng.Login(context.Background(), "doctor@citamed.test", "wrong")
	if err == nil {
		t.Fatal("expected login failure")
	}
}

// The doctor's consultation flow end to end: create the prescription with
// blank annotations, attach a regimen with shorthand frequency input, then
// complete the appointment.
func TestEngine_DoctorConsultationFlow(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	seedDoctor(api)
	api.Appointments[10] = &testutil.Appointment{
		ID: 10, Status: "CONFIRMADA",
		Patient: testutil.Person{ID: 1, Name: "Paciente Demo"},
		Doctor:  testutil.Person{ID: 2, Name: "Doctor Demo"},
	}
	api.Catalog = []testutil.Medication{
		{ID: 1, Name: "Amoxicilina", Presentation: "500mg", Type: "Cápsula"},
	}

	eng := newTestEngine(t, api)
	if _, err := eng.Login(context.Background(), "doctor@citamed.test", "secreto"); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	svc, err := eng.Appointments()
	if err != nil {
		t.Fatal(err)
	}
	appt, err := svc.Get(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}

	builder, err := eng.NewPrescriptionBuilder()
	if err != nil {
		t.Fatal(err)
	}

	// Completing before the prescription exists is refused locally.
	err = eng.FinishConsultation(ctx, svc, builder, appt)
	if !errors.Is(err, ErrPrescriptionRequired) {
		t.Fatalf("expected ErrPrescriptionRequired, got %v", err)
	}
	if api.CallCount("PUT /appointments/:id/status") != 0 {
		t.Error("refusal must not hit the backend")
	}

	if _, err := builder.Create(ctx, 10, ""); err != nil {
		t.Fatalf("create prescription: %v", err)
	}

	reg, err := builder.AddRegimen(ctx, prescription.RegimenInput{
		MedicationID: 1,
		Frequency:    "8",
		TotalDays:    "7",
		DoseQuantity: "1 cápsula",
	})
	if err != nil {
		t.Fatalf("add regimen: %v", err)
	}
	if reg.Frequency != "08:00" {
		t.Errorf("backend stored frequency %q, want 08:00", reg.Frequency)
	}
	if reg.DosesTaken != 0 || reg.TotalDoses != 21 {
		t.Errorf("fresh regimen counters: taken=%d total=%d", reg.DosesTaken, reg.TotalDoses)
	}

	if err := eng.FinishConsultation(ctx, svc, builder, appt); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if got := api.Appointments[10].Status; got != "COMPLETADA" {
		t.Errorf("backend appointment status: %s", got)
	}
	if appt.Status != appointment.StatusCompleted {
		t.Errorf("local snapshot status: %s", appt.Status)
	}

	// Stored annotations got the placeholder.
	var stored *testutil.Prescription
	for _, p := range api.Prescriptions {
		if p.AppointmentID == 10 {
			stored = p
		}
	}
	if stored == nil || stored.Annotations != "Receta médica" {
		t.Errorf("expected default annotations on backend, got %+v", stored)
	}

	// A duplicate create is refused by the backend.
	other, err := eng.NewPrescriptionBuilder()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Create(ctx, 10, "otra"); err == nil {
		t.Error("expected duplicate create to fail")
	}
}

// The patient's double-cancel: the second submit dies client-side and the
// backend sees exactly one status update.
func TestEngine_PatientDoubleCancel(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	seedPatient(api)
	api.Appointments[20] = &testutil.Appointment{
		ID: 20, Status: "PENDIENTE",
		Patient: testutil.Person{ID: 1, Name: "Paciente Demo"},
		Doctor:  testutil.Person{ID: 2, Name: "Doctor Demo"},
	}

	eng := newTestEngine(t, api)
	if _, err := eng.Login(context.Background(), "paciente@citamed.test", "secreto"); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	svc, err := eng.Appointments()
	if err != nil {
		t.Fatal(err)
	}
	appt, err := svc.Get(ctx, 20)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Cancel(ctx, appt); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	err = svc.Cancel(ctx, appt)
	if !errors.Is(err, appointment.ErrInvalidTransition) {
		t.Fatalf("second cancel: expected ErrInvalidTransition, got %v", err)
	}

	if got := api.CallCount("PUT /appointments/:id/status"); got != 1 {
		t.Errorf("backend must see exactly one update, saw %d", got)
	}
	if got := api.Appointments[20].Status; got != "CANCELADA" {
		t.Errorf("backend status: %s", got)
	}

	// Completing is not a patient move at all.
	confirmed, _ := svc.Get(ctx, 20)
	confirmed.Status = appointment.StatusConfirmed
	if err := svc.Complete(ctx, confirmed); !errors.Is(err, appointment.ErrRoleNotAllowed) {
		t.Errorf("expected ErrRoleNotAllowed, got %v", err)
	}
}

// Dose tracking against the live fake: record a dose, watch the counter move
// remotely and the countdown restart locally.
func TestEngine_DoseTrackingFlow(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	seedPatient(api)
	api.Appointments[10] = &testutil.Appointment{ID: 10, Status: "COMPLETADA"}
	api.Prescriptions[30] = &testutil.Prescription{
		ID: 30, AppointmentID: 10, Annotations: "Receta médica",
		Regimens: []*testutil.Regimen{{
			ID: 31, Frequency: "08:00", TotalDays: 7, DoseQuantity: "1 tableta",
			Medication: testutil.Medication{ID: 1, Name: "Amoxicilina"},
			DosesTaken: 20, TotalDoses: 21,
		}},
	}

	eng := newTestEngine(t, api)
	if _, err := eng.Login(context.Background(), "paciente@citamed.test", "secreto"); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	builder, err := eng.NewPrescriptionBuilder()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := builder.Load(ctx, 10); err != nil {
		t.Fatalf("load prescription: %v", err)
	}

	tracker, err := eng.NewDoseTracker()
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	tracker.SetRegimens(builder.Regimens(), now)

	if err := tracker.RecordDose(ctx, 31, now); err != nil {
		t.Fatalf("record dose: %v", err)
	}
	if got := api.Prescriptions[30].Regimens[0].DosesTaken; got != 21 {
		t.Errorf("backend counter: %d", got)
	}

	// The regimen is now complete; another dose dies client-side.
	err = tracker.RecordDose(ctx, 31, now)
	if err == nil {
		t.Fatal("expected rejection once all doses are taken")
	}
	if got := api.CallCount("PUT /medications-prescribed/:id/dose"); got != 1 {
		t.Errorf("backend must see exactly one dose call, saw %d", got)
	}
}
