package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saludclara-server/internal/models"
)

type captureSender struct {
	msg EmailMessage
	err error
}

func (s *captureSender) Send(ctx context.Context, msg EmailMessage) error {
	s.msg = msg
	return s.err
}

func sampleAppointment() *models.Appointment {
	return &models.Appointment{
		OwnerID:          "user-1",
		ConfirmationCode: "SC-TEST-AAAA",
		PatientName:      "Ana Pérez",
		PatientEmail:     "ana@example.com",
		PatientPhone:     "7777-0000",
		VisitType:        models.VisitInPerson,
		Location:         "Hospital Nacional Rosales",
		Specialty:        "Medicina General",
		Date:             "2026-03-02",
		Time:             "10:00",
		Reason:           "Routine checkup visit",
		Status:           models.StatusConfirmed,
	}
}

func TestSendConfirmation(t *testing.T) {
	sender := &captureSender{}
	dispatcher := NewDispatcher(sender)

	err := dispatcher.SendConfirmation(context.Background(), sampleAppointment())
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", sender.msg.To)
	assert.Equal(t, "Ana Pérez", sender.msg.ToName)
	assert.Equal(t, "Cita Confirmada - SC-TEST-AAAA - SaludClara", sender.msg.Subject)

	assert.Contains(t, sender.msg.HTML, "Ana Pérez")
	assert.Contains(t, sender.msg.HTML, "SC-TEST-AAAA")
	assert.Contains(t, sender.msg.HTML, "Hospital Nacional Rosales")
	assert.Contains(t, sender.msg.HTML, "Presencial")
	assert.Contains(t, sender.msg.HTML, "lunes, 2 de marzo de 2026")
}

func TestSendConfirmationVirtualVisit(t *testing.T) {
	sender := &captureSender{}
	dispatcher := NewDispatcher(sender)

	appointment := sampleAppointment()
	appointment.VisitType = models.VisitVirtual
	appointment.Location = models.VirtualLocation

	err := dispatcher.SendConfirmation(context.Background(), appointment)
	require.NoError(t, err)

	assert.Contains(t, sender.msg.HTML, "Virtual (Videollamada)")
	assert.Contains(t, sender.msg.HTML, models.VirtualLocation)
}

func TestSendConfirmationWrapsSenderError(t *testing.T) {
	sender := &captureSender{err: errors.New("connection reset")}
	dispatcher := NewDispatcher(sender)

	err := dispatcher.SendConfirmation(context.Background(), sampleAppointment())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SC-TEST-AAAA")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestVisitTypeLabel(t *testing.T) {
	assert.Equal(t, "Presencial", VisitTypeLabel(models.VisitInPerson))
	assert.Equal(t, "Virtual (Videollamada)", VisitTypeLabel(models.VisitVirtual))
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2026-03-02", "lunes, 2 de marzo de 2026"},
		{"2026-03-11", "miércoles, 11 de marzo de 2026"},
		{"2025-12-25", "jueves, 25 de diciembre de 2025"},
		{"not-a-date", "not-a-date"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDate(tt.date))
	}
}
