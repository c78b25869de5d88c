package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saludclara-server/internal/models"
)

type fakeStore struct {
	calls int
	token string
	last  *models.Appointment
	err   error
}

func (f *fakeStore) CreateAppointment(ctx context.Context, token string, appointment *models.Appointment) (*models.Appointment, error) {
	f.calls++
	f.token = token
	f.last = appointment
	if f.err != nil {
		return nil, f.err
	}
	return appointment, nil
}

type fakeNotifier struct {
	calls int
	last  *models.Appointment
	err   error
}

func (f *fakeNotifier) SendConfirmation(ctx context.Context, appointment *models.Appointment) error {
	f.calls++
	f.last = appointment
	return f.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testWorkflow(store AppointmentCreator, notifier ConfirmationSender) *Workflow {
	w := NewWorkflow(store, notifier, nil)
	w.now = fixedClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	return w
}

func fillIdentityStep(w *Workflow) {
	w.SetPatient("Ana Pérez", "ana@example.com", "7777-0000")
	w.SetVisitType(models.VisitInPerson)
	w.SetLocation("Hospital Nacional Rosales")
	w.SetSpecialty("Medicina General")
}

func fillScheduleStep(w *Workflow) {
	w.SetSchedule("2026-03-11", "10:00", "Routine checkup visit")
}

func TestNextBlocksOnMissingIdentityFields(t *testing.T) {
	w := testWorkflow(nil, nil)

	err := w.Next()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "patientName", verr.Field)
	assert.Equal(t, StepIdentity, w.Step())

	// Filling everything but the specialty still blocks
	w.SetPatient("Ana Pérez", "ana@example.com", "7777-0000")
	w.SetVisitType(models.VisitVirtual)
	err = w.Next()
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "specialty", verr.Field)
	assert.Equal(t, StepIdentity, w.Step())
}

func TestNextRequiresLocationForInPerson(t *testing.T) {
	w := testWorkflow(nil, nil)
	w.SetPatient("Ana Pérez", "ana@example.com", "7777-0000")
	w.SetVisitType(models.VisitInPerson)
	w.SetSpecialty("Cardiología")

	err := w.Next()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "location", verr.Field)

	w.SetLocation("Hospital Nacional Rosales")
	require.NoError(t, w.Next())
	assert.Equal(t, StepSchedule, w.Step())
}

func TestVirtualVisitPinsSentinelLocation(t *testing.T) {
	w := testWorkflow(nil, nil)

	w.SetVisitType(models.VisitVirtual)
	assert.Equal(t, models.VirtualLocation, w.Form().Location)

	// Place picker cannot override the sentinel
	w.SetLocation("Clínica Santa Lucía")
	assert.Equal(t, models.VirtualLocation, w.Form().Location)

	// Switching back to in-person clears it for the place picker
	w.SetVisitType(models.VisitInPerson)
	assert.Empty(t, w.Form().Location)
}

func TestScheduleStepValidation(t *testing.T) {
	w := testWorkflow(nil, nil)
	fillIdentityStep(w)
	require.NoError(t, w.Next())

	tests := []struct {
		name  string
		date  string
		time  string
		rsn   string
		field string
	}{
		{"missing date", "", "10:00", "Routine checkup visit", "date"},
		{"date today is too soon", "2026-03-10", "10:00", "Routine checkup visit", "date"},
		{"date in the past", "2026-03-01", "10:00", "Routine checkup visit", "date"},
		{"bad date format", "11/03/2026", "10:00", "Routine checkup visit", "date"},
		{"missing time", "2026-03-11", "", "Routine checkup visit", "time"},
		{"short reason", "2026-03-11", "10:00", "headache", "reason"},
		{"whitespace reason", "2026-03-11", "10:00", "         x        ", "reason"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w.SetSchedule(tt.date, tt.time, tt.rsn)
			err := w.Next()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, StepSchedule, w.Step())
		})
	}

	fillScheduleStep(w)
	require.NoError(t, w.Next())
	assert.Equal(t, StepSummary, w.Step())
}

func TestBackIsUnrestricted(t *testing.T) {
	w := testWorkflow(nil, nil)
	fillIdentityStep(w)
	require.NoError(t, w.Next())
	fillScheduleStep(w)
	require.NoError(t, w.Next())

	w.Back()
	assert.Equal(t, StepSchedule, w.Step())
	w.Back()
	assert.Equal(t, StepIdentity, w.Step())
	// Already on the first step; Back stays put
	w.Back()
	assert.Equal(t, StepIdentity, w.Step())
}

func TestSummaryOnlyOnSummaryStep(t *testing.T) {
	w := testWorkflow(nil, nil)
	_, err := w.Summary()
	assert.ErrorIs(t, err, ErrNotOnSummary)

	fillIdentityStep(w)
	require.NoError(t, w.Next())
	fillScheduleStep(w)
	require.NoError(t, w.Next())

	summary, err := w.Summary()
	require.NoError(t, err)
	assert.Equal(t, "Ana Pérez", summary.PatientName)
	assert.Equal(t, "Presencial", summary.VisitTypeLabel)
	assert.Equal(t, "Hospital Nacional Rosales", summary.Location)
	assert.Equal(t, "miércoles, 11 de marzo de 2026", summary.DateFormatted)
}

func TestConfirmHappyPath(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	w := testWorkflow(store, notifier)
	w.SignIn(Identity{ID: "user-1", Name: "Ana", Email: "ana@example.com", Token: "tok-1"})

	fillIdentityStep(w)
	require.NoError(t, w.Next())
	fillScheduleStep(w)
	require.NoError(t, w.Next())

	receipt, err := w.Confirm(context.Background())
	require.NoError(t, err)

	assert.Regexp(t, codePattern, receipt.ConfirmationCode)
	assert.True(t, receipt.Synced)
	assert.True(t, receipt.EmailSent)
	assert.Equal(t, StepCompleted, w.Step())

	require.Equal(t, 1, store.calls)
	assert.Equal(t, "tok-1", store.token)
	assert.Equal(t, "user-1", store.last.OwnerID)
	assert.Equal(t, receipt.ConfirmationCode, store.last.ConfirmationCode)
	assert.Equal(t, models.StatusConfirmed, store.last.Status)

	require.Equal(t, 1, notifier.calls)
	assert.Equal(t, receipt.ConfirmationCode, notifier.last.ConfirmationCode)

	// Completed is terminal
	assert.ErrorIs(t, w.Next(), ErrCompleted)
	_, err = w.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrCompleted)
}

func TestConfirmBeforeSummaryStep(t *testing.T) {
	w := testWorkflow(&fakeStore{}, &fakeNotifier{})
	_, err := w.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrNotOnSummary)
}

func TestConfirmWithoutCredentialSkipsStore(t *testing.T) {
	store := &fakeStore{}
	w := testWorkflow(store, &fakeNotifier{})

	fillIdentityStep(w)
	require.NoError(t, w.Next())
	fillScheduleStep(w)
	require.NoError(t, w.Next())

	receipt, err := w.Confirm(context.Background())
	require.NoError(t, err)

	assert.Zero(t, store.calls)
	assert.False(t, receipt.Synced)
	assert.NotEmpty(t, receipt.ConfirmationCode)
}

func TestConfirmSurvivesStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	notifier := &fakeNotifier{}
	w := testWorkflow(store, notifier)
	w.SignIn(Identity{ID: "user-1", Token: "tok-1"})

	fillIdentityStep(w)
	require.NoError(t, w.Next())
	fillScheduleStep(w)
	require.NoError(t, w.Next())

	receipt, err := w.Confirm(context.Background())
	require.NoError(t, err)

	// Created but not synced: the local receipt stands
	assert.False(t, receipt.Synced)
	assert.True(t, receipt.EmailSent)
	assert.Equal(t, StepCompleted, w.Step())
}

func TestConfirmSurvivesEmailFailure(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	w := testWorkflow(store, notifier)
	w.SignIn(Identity{ID: "user-1", Token: "tok-1"})

	fillIdentityStep(w)
	require.NoError(t, w.Next())
	fillScheduleStep(w)
	require.NoError(t, w.Next())

	receipt, err := w.Confirm(context.Background())
	require.NoError(t, err)

	assert.True(t, receipt.Synced)
	assert.False(t, receipt.EmailSent)
}

func TestResetClearsFormAndReturnsToStart(t *testing.T) {
	w := testWorkflow(&fakeStore{}, &fakeNotifier{})
	w.SignIn(Identity{ID: "user-1", Token: "tok-1"})

	fillIdentityStep(w)
	require.NoError(t, w.Next())
	fillScheduleStep(w)
	require.NoError(t, w.Next())
	_, err := w.Confirm(context.Background())
	require.NoError(t, err)

	w.Reset()
	assert.Equal(t, StepIdentity, w.Step())
	assert.Equal(t, Form{}, w.Form())

	// The session identity survives a reset; a new booking starts signed in
	fillIdentityStep(w)
	require.NoError(t, w.Next())
	fillScheduleStep(w)
	require.NoError(t, w.Next())
	receipt, err := w.Confirm(context.Background())
	require.NoError(t, err)
	assert.True(t, receipt.Synced)
}
