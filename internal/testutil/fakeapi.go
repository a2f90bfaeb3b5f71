// Package testutil provides an in-memory CitaMed backend for tests. It
// speaks the same envelope contract as the real API, including domain
// failures delivered as HTTP 200 with error=true.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const signingKey = "citamed-test-key"

// Token mints a parseable bearer token for the given identity.
func Token(userID int64, name, role string) string {
	claims := jwt.MapClaims{
		"sub":    strconv.FormatInt(userID, 10),
		"nombre": name,
		"role":   role,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(signingKey))
	if err != nil {
		panic(err)
	}
	return signed
}

// Appointment is the fake's stored appointment record.
type Appointment struct {
	ID          int64     `json:"id"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Duration    int       `json:"duration"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
	Patient     Person    `json:"patient"`
	Doctor      Person    `json:"doctor"`
}

type Person struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Sex       string `json:"sex,omitempty"`
	Specialty string `json:"specialty,omitempty"`
}

type Medication struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Presentation string `json:"presentation"`
	Type         string `json:"type"`
}

type Regimen struct {
	ID           int64      `json:"id"`
	DoseQuantity string     `json:"doseQuantity"`
	Frequency    string     `json:"frequency"`
	TotalDays    int        `json:"totalDays"`
	Medication   Medication `json:"medication"`
	DosesTaken   int        `json:"dosesTaken"`
	TotalDoses   int        `json:"totalDoses"`
}

type Prescription struct {
	ID            int64      `json:"id"`
	Annotations   string     `json:"annotations"`
	AppointmentID int64      `json:"appointmentId"`
	Regimens      []*Regimen `json:"medications"`
}

type ScheduleBlock struct {
	ID        int64  `json:"id"`
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	DoctorID  int64  `json:"doctorId"`
	Doctor    Person `json:"doctor"`
}

// FakeAPI is the in-memory backend. Mutate its maps directly to seed state;
// every handler takes the lock.
type FakeAPI struct {
	mu sync.Mutex

	Appointments  map[int64]*Appointment
	Prescriptions map[int64]*Prescription
	Catalog       []Medication
	Blocks        map[int64]*ScheduleBlock
	Logins        map[string]LoginUser // email → identity
	nextID        int64

	// Calls counts requests per "METHOD /route" for no-network assertions.
	Calls map[string]int

	srv *httptest.Server
}

type LoginUser struct {
	Password string
	UserID   int64
	Name     string
	Role     string
}

func NewFakeAPI() *FakeAPI {
	f := &FakeAPI{
		Appointments:  make(map[int64]*Appointment),
		Prescriptions: make(map[int64]*Prescription),
		Blocks:        make(map[int64]*ScheduleBlock),
		Logins:        make(map[string]LoginUser),
		Calls:         make(map[string]int),
		nextID:        100,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(f.count)

	e.POST("/auth/login", f.login)
	e.GET("/appointments", f.listAppointments)
	e.GET("/appointments/:id", f.getAppointment)
	e.PUT("/appointments/:id/status", f.updateStatus)
	e.POST("/appointments", f.book)
	e.POST("/prescriptions", f.createPrescription)
	e.GET("/prescriptions", f.getPrescription)
	e.POST("/prescriptions/:id/medications", f.addRegimen)
	e.DELETE("/prescriptions/:id/medications/:mid", f.removeRegimen)
	e.PUT("/medications-prescribed/:id/dose", f.recordDose)
	e.GET("/medications", f.listMedications)
	e.GET("/patients/profile", f.patientProfile)
	e.GET("/doctors/profile", f.doctorProfile)
	e.GET("/schedules", f.listSchedules)
	e.GET("/schedules/mine", f.listSchedules)
	e.POST("/schedules", f.createSchedule)
	e.DELETE("/schedules/:id", f.deleteSchedule)

	f.srv = httptest.NewServer(e)
	return f
}

func (f *FakeAPI) URL() string { return f.srv.URL }
func (f *FakeAPI) Close()      { f.srv.Close() }

// CallCount returns how many requests hit "METHOD /route/pattern".
func (f *FakeAPI) CallCount(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[route]
}

// NextID hands out a fresh resource id.
func (f *FakeAPI) NextID() int64 {
	f.nextID++
	return f.nextID
}

func (f *FakeAPI) count(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		f.mu.Lock()
		f.Calls[c.Request().Method+" "+c.Path()]++
		f.mu.Unlock()
		if c.Path() != "/auth/login" && !strings.HasPrefix(c.Request().Header.Get("Authorization"), "Bearer ") {
			return fail(c, http.StatusUnauthorized, "Sesión expirada")
		}
		return next(c)
	}
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, map[string]any{"error": false, "data": data})
}

func okMsg(c echo.Context, message string, data any) error {
	return c.JSON(http.StatusOK, map[string]any{"error": false, "message": message, "data": data})
}

// fail sends an envelope failure. Domain rejections use HTTP 200 with
// error=true, matching the backend's habit of burying failures in a 200.
func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]any{"error": true, "message": message})
}

func (f *FakeAPI) login(c echo.Context) error {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&creds); err != nil {
		return fail(c, http.StatusBadRequest, "Solicitud inválida")
	}
	f.mu.Lock()
	u, found := f.Logins[creds.Email]
	f.mu.Unlock()
	if !found || u.Password != creds.Password {
		return fail(c, http.StatusUnauthorized, "Credenciales incorrectas")
	}
	return ok(c, map[string]string{"token": Token(u.UserID, u.Name, u.Role)})
}

func (f *FakeAPI) listAppointments(c echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Appointment, 0, len(f.Appointments))
	for _, a := range f.Appointments {
		out = append(out, a)
	}
	return ok(c, out)
}

func (f *FakeAPI) getAppointment(c echo.Context) error {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	f.mu.Lock()
	a, found := f.Appointments[id]
	f.mu.Unlock()
	if !found {
		return fail(c, http.StatusNotFound, "Cita no encontrada")
	}
	return ok(c, a)
}

var allowedTransitions = map[string][]string{
	"PENDIENTE":  {"CONFIRMADA", "CANCELADA"},
	"CONFIRMADA": {"COMPLETADA", "CANCELADA"},
}

func (f *FakeAPI) updateStatus(c echo.Context) error {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	next := c.QueryParam("newStatus")

	f.mu.Lock()
	defer f.mu.Unlock()
	a, found := f.Appointments[id]
	if !found {
		return fail(c, http.StatusNotFound, "Cita no encontrada")
	}
	for _, allowed := range allowedTransitions[a.Status] {
		if allowed == next {
			a.Status = next
			return okMsg(c, "Estado actualizado", nil)
		}
	}
	// Domain failure on HTTP 200: the contract's error flag is authoritative.
	return fail(c, http.StatusOK, fmt.Sprintf("Transición inválida: %s → %s", a.Status, next))
}

func (f *FakeAPI) book(c echo.Context) error {
	var req struct {
		DoctorID    int64     `json:"doctorId"`
		ScheduledAt time.Time `json:"scheduledAt"`
		Duration    int       `json:"duration"`
		Reason      string    `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Solicitud inválida")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a := &Appointment{
		ID:          f.nextID,
		ScheduledAt: req.ScheduledAt,
		Duration:    req.Duration,
		Reason:      req.Reason,
		Status:      "PENDIENTE",
		Doctor:      Person{ID: req.DoctorID},
	}
	f.Appointments[a.ID] = a
	return okMsg(c, "Cita agendada", a)
}

func (f *FakeAPI) createPrescription(c echo.Context) error {
	apptID, _ := strconv.ParseInt(c.QueryParam("appointmentId"), 10, 64)
	annotations := c.QueryParam("annotations")

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, found := f.Appointments[apptID]; !found {
		return fail(c, http.StatusNotFound, "Cita no encontrada")
	}
	for _, p := range f.Prescriptions {
		if p.AppointmentID == apptID {
			return fail(c, http.StatusConflict, "La cita ya tiene una receta")
		}
	}
	if annotations == "" {
		return fail(c, http.StatusBadRequest, "Anotaciones requeridas")
	}
	f.nextID++
	p := &Prescription{ID: f.nextID, Annotations: annotations, AppointmentID: apptID, Regimens: []*Regimen{}}
	f.Prescriptions[p.ID] = p
	return okMsg(c, "Receta creada exitosamente", p)
}

func (f *FakeAPI) getPrescription(c echo.Context) error {
	apptID, _ := strconv.ParseInt(c.QueryParam("appointmentId"), 10, 64)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.Prescriptions {
		if p.AppointmentID == apptID {
			return ok(c, p)
		}
	}
	return fail(c, http.StatusNotFound, "La cita no tiene receta")
}

func (f *FakeAPI) addRegimen(c echo.Context) error {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	var req struct {
		MedicationID int64  `json:"medicationId"`
		Frequency    string `json:"frequency"`
		TotalDays    int    `json:"totalDays"`
		DoseQuantity string `json:"doseQuantity"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Solicitud inválida")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	p, found := f.Prescriptions[id]
	if !found {
		return fail(c, http.StatusNotFound, "Receta no encontrada")
	}
	var med *Medication
	for i := range f.Catalog {
		if f.Catalog[i].ID == req.MedicationID {
			med = &f.Catalog[i]
			break
		}
	}
	if med == nil {
		return fail(c, http.StatusNotFound, "Medicamento no encontrado")
	}

	f.nextID++
	reg := &Regimen{
		ID:           f.nextID,
		DoseQuantity: req.DoseQuantity,
		Frequency:    req.Frequency,
		TotalDays:    req.TotalDays,
		Medication:   *med,
		DosesTaken:   0,
		TotalDoses:   expectedDoses(req.Frequency, req.TotalDays),
	}
	p.Regimens = append(p.Regimens, reg)
	return okMsg(c, "Medicamento agregado exitosamente", reg)
}

// expectedDoses derives the total dose count the way the backend does:
// doses per day from the hour interval, times treatment days.
func expectedDoses(frequency string, days int) int {
	parts := strings.Split(frequency, ":")
	if len(parts) != 2 {
		return 0
	}
	hours, _ := strconv.Atoi(parts[0])
	minutes, _ := strconv.Atoi(parts[1])
	interval := hours*60 + minutes
	if interval <= 0 {
		return 0
	}
	perDay := (24 * 60) / interval
	if perDay < 1 {
		perDay = 1
	}
	return perDay * days
}

func (f *FakeAPI) removeRegimen(c echo.Context) error {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	mid, _ := strconv.ParseInt(c.Param("mid"), 10, 64)
	f.mu.Lock()
	defer f.mu.Unlock()
	p, found := f.Prescriptions[id]
	if !found {
		return fail(c, http.StatusNotFound, "Receta no encontrada")
	}
	for i, reg := range p.Regimens {
		if reg.ID == mid {
			p.Regimens = append(p.Regimens[:i], p.Regimens[i+1:]...)
			return ok(c, nil)
		}
	}
	return fail(c, http.StatusNotFound, "Medicamento recetado no encontrado")
}

func (f *FakeAPI) recordDose(c echo.Context) error {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.Prescriptions {
		for _, reg := range p.Regimens {
			if reg.ID != id {
				continue
			}
			if reg.TotalDoses > 0 && reg.DosesTaken >= reg.TotalDoses {
				return fail(c, http.StatusOK, "Tratamiento completado")
			}
			reg.DosesTaken++
			return okMsg(c, "Dosis registrada", nil)
		}
	}
	return fail(c, http.StatusNotFound, "Medicamento recetado no encontrado")
}

func (f *FakeAPI) listMedications(c echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ok(c, f.Catalog)
}

func (f *FakeAPI) patientProfile(c echo.Context) error {
	return ok(c, map[string]any{"id": 1, "name": "Paciente Demo", "email": "paciente@citamed.test", "sex": "Femenino"})
}

func (f *FakeAPI) doctorProfile(c echo.Context) error {
	return ok(c, map[string]any{"id": 2, "name": "Doctor Demo", "email": "doctor@citamed.test", "specialty": "General"})
}

func (f *FakeAPI) listSchedules(c echo.Context) error {
	day := c.QueryParam("day")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*ScheduleBlock, 0, len(f.Blocks))
	for _, b := range f.Blocks {
		if day == "" || b.Day == day {
			out = append(out, b)
		}
	}
	return ok(c, out)
}

func (f *FakeAPI) createSchedule(c echo.Context) error {
	var b ScheduleBlock
	if err := c.Bind(&b); err != nil {
		return fail(c, http.StatusBadRequest, "Solicitud inválida")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	b.ID = f.nextID
	f.Blocks[b.ID] = &b
	return ok(c, b)
}

func (f *FakeAPI) deleteSchedule(c echo.Context) error {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, found := f.Blocks[id]; !found {
		return fail(c, http.StatusNotFound, "Horario no encontrado")
	}
	delete(f.Blocks, id)
	return ok(c, nil)
}
