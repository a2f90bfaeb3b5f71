package rest

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/citamed/citamed/internal/testutil"
)

func newTestClient(t *testing.T, api *testutil.FakeAPI, tokens TokenSource) *Client {
	t.Helper()
	return NewClient(api.URL(), tokens, 5*time.Second, zerolog.Nop())
}

func doctorToken() TokenSource {
	return StaticToken(testutil.Token(2, "Doctor Demo", "MEDICO"))
}

func TestClient_DecodesEnvelopeData(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	api.Catalog = []testutil.Medication{
		{ID: 1, Name: "Paracetamol", Presentation: "500mg", Type: "Tableta"},
	}

	c := newTestClient(t, api, doctorToken())
	var meds []testutil.Medication
	if err := c.Get(context.Background(), "/medications", nil, &meds); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(meds) != 1 || meds[0].Name != "Paracetamol" {
		t.Fatalf("unexpected catalog: %+v", meds)
	}
}

func TestClient_MissingTokenIsTransportError(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()

	c := newTestClient(t, api, StaticToken(""))
	err := c.Get(context.Background(), "/medications", nil, nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if api.CallCount("GET /medications") != 0 {
		t.Error("request must not be sent without a token")
	}
}

func TestClient_UnauthorizedMapsToSentinel(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()

	// Anonymous client on a protected route.
	c := newTestClient(t, api, nil)
	err := c.Get(context.Background(), "/medications", nil, nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClient_NotFoundMapsToSentinel(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()

	c := newTestClient(t, api, doctorToken())
	err := c.Get(context.Background(), "/appointments/999", nil, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var de *DomainError
	if !errors.As(err, &de) || de.Message != "Cita no encontrada" {
		t.Fatalf("expected backend message, got %v", err)
	}
}

func TestClient_ConflictMapsToAlreadyExists(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	api.Appointments[10] = &testutil.Appointment{ID: 10, Status: "CONFIRMADA"}
	api.Prescriptions[11] = &testutil.Prescription{ID: 11, AppointmentID: 10}

	c := newTestClient(t, api, doctorToken())
	q := url.Values{"appointmentId": {"10"}, "annotations": {"x"}}
	err := c.Post(context.Background(), "/prescriptions", q, nil, nil)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestClient_ErrorFlagOn200IsDomainFailure(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	api.Appointments[10] = &testutil.Appointment{ID: 10, Status: "COMPLETADA"}

	c := newTestClient(t, api, doctorToken())
	q := url.Values{"newStatus": {"CANCELADA"}}
	err := c.Put(context.Background(), "/appointments/10/status", q, nil, nil)

	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	if de.StatusCode != 200 {
		t.Errorf("expected the failure to ride on http 200, got %d", de.StatusCode)
	}
	if got := UserMessage(err, "fallback"); got == "fallback" {
		t.Error("expected backend message to win over fallback")
	}
}

func TestClient_UnreachableBackendIsTransportError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", doctorToken(), 500*time.Millisecond, zerolog.Nop())
	err := c.Get(context.Background(), "/medications", nil, nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if got := UserMessage(err, "Sin conexión"); got != "Sin conexión" {
		t.Errorf("transport failures must use the fallback message, got %q", got)
	}
}
