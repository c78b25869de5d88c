package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"saludclara-server/internal/models"
	"saludclara-server/internal/notify"
)

// Step identifies a stage of the booking wizard.
type Step int

const (
	StepIdentity Step = iota + 1
	StepSchedule
	StepSummary
	StepCompleted
)

// String returns the patient-facing step name.
func (s Step) String() string {
	switch s {
	case StepIdentity:
		return "identity"
	case StepSchedule:
		return "schedule"
	case StepSummary:
		return "summary"
	case StepCompleted:
		return "completed"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// ValidationError reports a field that blocks advancing to the next step.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("booking: invalid %s: %s", e.Field, e.Reason)
}

var (
	// ErrCompleted is returned by mutating calls after the workflow reached
	// its terminal state. Reset is the only way out.
	ErrCompleted = errors.New("booking: workflow already completed")
	// ErrConfirmRequired is returned by Next on the summary step; leaving it
	// forward requires the explicit Confirm call.
	ErrConfirmRequired = errors.New("booking: confirm required to complete the booking")
	// ErrNotOnSummary is returned by Confirm before the summary step.
	ErrNotOnSummary = errors.New("booking: confirm is only available on the summary step")
)

// Identity is the signed-in user driving the workflow. Token is the bearer
// credential forwarded to the appointment API; without one the booking
// degrades to local-only mode and the store write is skipped.
type Identity struct {
	ID    string
	Name  string
	Email string
	Token string
}

// Form holds the fields accumulated across the wizard steps.
type Form struct {
	PatientName  string
	PatientEmail string
	PatientPhone string
	VisitType    models.VisitType
	Location     string
	Specialty    string
	Date         string
	Time         string
	Reason       string
}

// AppointmentCreator is the workflow's port to the lifecycle API.
type AppointmentCreator interface {
	CreateAppointment(ctx context.Context, token string, appointment *models.Appointment) (*models.Appointment, error)
}

// ConfirmationSender dispatches the confirmation email after completion.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, appointment *models.Appointment) error
}

// Workflow is the three-step booking state machine. One instance per user
// session; not safe for concurrent use.
type Workflow struct {
	step     Step
	form     Form
	identity *Identity
	store    AppointmentCreator
	notifier ConfirmationSender
	log      *zap.Logger
	now      func() time.Time
}

// NewWorkflow creates a workflow positioned on the identity step.
func NewWorkflow(store AppointmentCreator, notifier ConfirmationSender, log *zap.Logger) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Workflow{
		step:     StepIdentity,
		store:    store,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Step reports the current wizard position.
func (w *Workflow) Step() Step {
	return w.step
}

// Form returns a copy of the accumulated fields.
func (w *Workflow) Form() Form {
	return w.form
}

// SignIn attaches the authenticated user to the session.
func (w *Workflow) SignIn(identity Identity) {
	w.identity = &identity
}

// SignOut clears the session identity. Subsequent bookings are local-only.
func (w *Workflow) SignOut() {
	w.identity = nil
}

// SetPatient records the step-one contact fields.
func (w *Workflow) SetPatient(name, email, phone string) {
	w.form.PatientName = name
	w.form.PatientEmail = email
	w.form.PatientPhone = phone
}

// SetVisitType selects in-person or virtual care. Choosing virtual pins the
// location to the fixed sentinel; choosing in-person clears it so the
// place picker has to supply one.
func (w *Workflow) SetVisitType(visitType models.VisitType) {
	w.form.VisitType = visitType
	if visitType == models.VisitVirtual {
		w.form.Location = models.VirtualLocation
	} else if w.form.Location == models.VirtualLocation {
		w.form.Location = ""
	}
}

// SetLocation records the place-picker selection for in-person visits. The
// sentinel of a virtual visit is not overridable.
func (w *Workflow) SetLocation(location string) {
	if w.form.VisitType == models.VisitVirtual {
		return
	}
	w.form.Location = location
}

// SetSpecialty records the selected category of care.
func (w *Workflow) SetSpecialty(specialty string) {
	w.form.Specialty = specialty
}

// SetSchedule records the step-two date, time and consultation reason.
func (w *Workflow) SetSchedule(date, timeOfDay, reason string) {
	w.form.Date = date
	w.form.Time = timeOfDay
	w.form.Reason = reason
}

// Next validates the current step and advances. On validation failure the
// step does not change and the blocking field is reported.
func (w *Workflow) Next() error {
	switch w.step {
	case StepIdentity:
		if err := w.validateIdentityStep(); err != nil {
			return err
		}
		w.step = StepSchedule
	case StepSchedule:
		if err := w.validateScheduleStep(); err != nil {
			return err
		}
		w.step = StepSummary
	case StepSummary:
		return ErrConfirmRequired
	default:
		return ErrCompleted
	}
	return nil
}

// Back moves one step backward. Backward movement is always allowed while
// the wizard is in progress.
func (w *Workflow) Back() {
	if w.step > StepIdentity && w.step < StepCompleted {
		w.step--
	}
}

func (w *Workflow) validateIdentityStep() error {
	if strings.TrimSpace(w.form.PatientName) == "" {
		return &ValidationError{Field: "patientName", Reason: "required"}
	}
	if strings.TrimSpace(w.form.PatientEmail) == "" {
		return &ValidationError{Field: "patientEmail", Reason: "required"}
	}
	if strings.TrimSpace(w.form.PatientPhone) == "" {
		return &ValidationError{Field: "patientPhone", Reason: "required"}
	}
	if w.form.VisitType != models.VisitInPerson && w.form.VisitType != models.VisitVirtual {
		return &ValidationError{Field: "visitType", Reason: "required"}
	}
	if strings.TrimSpace(w.form.Specialty) == "" {
		return &ValidationError{Field: "specialty", Reason: "required"}
	}
	if w.form.VisitType == models.VisitInPerson && strings.TrimSpace(w.form.Location) == "" {
		return &ValidationError{Field: "location", Reason: "select a care location for in-person visits"}
	}
	return nil
}

func (w *Workflow) validateScheduleStep() error {
	if w.form.Date == "" {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	days, err := models.DaysRemaining(w.form.Date, w.now())
	if err != nil {
		return &ValidationError{Field: "date", Reason: "must be formatted as " + models.DateLayout}
	}
	if days < 1 {
		return &ValidationError{Field: "date", Reason: "must be tomorrow or later"}
	}
	if w.form.Time == "" {
		return &ValidationError{Field: "time", Reason: "required"}
	}
	if len(strings.TrimSpace(w.form.Reason)) < 10 {
		return &ValidationError{Field: "reason", Reason: "describe the consultation in at least 10 characters"}
	}
	return nil
}

// Summary is the read-only recap rendered on the final step.
type Summary struct {
	PatientName    string
	PatientEmail   string
	PatientPhone   string
	VisitTypeLabel string
	Location       string
	Specialty      string
	DateFormatted  string
	Time           string
	Reason         string
}

// Summary renders the confirmation recap. Only available on the summary
// step, which is reachable only through validated transitions.
func (w *Workflow) Summary() (Summary, error) {
	if w.step != StepSummary {
		return Summary{}, ErrNotOnSummary
	}
	return Summary{
		PatientName:    w.form.PatientName,
		PatientEmail:   w.form.PatientEmail,
		PatientPhone:   w.form.PatientPhone,
		VisitTypeLabel: notify.VisitTypeLabel(w.form.VisitType),
		Location:       w.form.Location,
		Specialty:      w.form.Specialty,
		DateFormatted:  notify.FormatDate(w.form.Date),
		Time:           w.form.Time,
		Reason:         w.form.Reason,
	}, nil
}

// Receipt is the proof of booking shown to the patient. It is produced from
// locally-held data, so it exists even when the store write failed or was
// skipped; Synced tells the two cases apart.
type Receipt struct {
	ConfirmationCode string
	PatientName      string
	PatientEmail     string
	PatientPhone     string
	VisitType        models.VisitType
	VisitTypeLabel   string
	Location         string
	Specialty        string
	Date             string
	DateFormatted    string
	Time             string
	Reason           string
	Synced           bool
	EmailSent        bool
}

// Confirm finalizes the booking: generates the confirmation code, writes the
// appointment through the lifecycle API when a credential is available, and
// dispatches the confirmation email. Store and email failures are soft; the
// local receipt is authoritative for the session. Confirm is terminal.
func (w *Workflow) Confirm(ctx context.Context) (*Receipt, error) {
	if w.step == StepCompleted {
		return nil, ErrCompleted
	}
	if w.step != StepSummary {
		return nil, ErrNotOnSummary
	}

	code := NewConfirmationCode(w.now())
	appointment := w.buildAppointment(code)
	receipt := &Receipt{
		ConfirmationCode: code,
		PatientName:      appointment.PatientName,
		PatientEmail:     appointment.PatientEmail,
		PatientPhone:     appointment.PatientPhone,
		VisitType:        appointment.VisitType,
		VisitTypeLabel:   notify.VisitTypeLabel(appointment.VisitType),
		Location:         appointment.Location,
		Specialty:        appointment.Specialty,
		Date:             appointment.Date,
		DateFormatted:    notify.FormatDate(appointment.Date),
		Time:             appointment.Time,
		Reason:           appointment.Reason,
	}

	// Best-effort store write; skipped entirely without a credential
	if w.identity != nil && w.identity.Token != "" && w.store != nil {
		if _, err := w.store.CreateAppointment(ctx, w.identity.Token, appointment); err != nil {
			w.log.Warn("appointment created locally but not synced",
				zap.String("confirmationCode", code),
				zap.Error(err))
		} else {
			receipt.Synced = true
		}
	}

	if w.notifier != nil {
		if err := w.notifier.SendConfirmation(ctx, appointment); err != nil {
			w.log.Warn("confirmation email not delivered",
				zap.String("confirmationCode", code),
				zap.Error(err))
		} else {
			receipt.EmailSent = true
		}
	}

	w.step = StepCompleted
	return receipt, nil
}

func (w *Workflow) buildAppointment(code string) *models.Appointment {
	appointment := &models.Appointment{
		ConfirmationCode: code,
		PatientName:      w.form.PatientName,
		PatientEmail:     w.form.PatientEmail,
		PatientPhone:     w.form.PatientPhone,
		VisitType:        w.form.VisitType,
		Location:         w.form.Location,
		Specialty:        w.form.Specialty,
		Date:             w.form.Date,
		Time:             w.form.Time,
		Reason:           w.form.Reason,
		Status:           models.StatusConfirmed,
	}
	if w.identity != nil {
		appointment.OwnerID = w.identity.ID
	}
	return appointment
}

// Reset clears every field and returns to the identity step. The session
// identity is kept; Reset starts a new booking, not a new session.
func (w *Workflow) Reset() {
	w.form = Form{}
	w.step = StepIdentity
}
