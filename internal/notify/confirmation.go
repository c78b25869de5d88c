package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"saludclara-server/internal/models"
)

// Dispatcher formats and sends appointment confirmation emails. Callers
// treat delivery as fire-and-forget: a failed send is reported back but must
// never undo the appointment it confirms.
type Dispatcher struct {
	sender EmailSender
}

// NewDispatcher creates a dispatcher on top of an email transport.
func NewDispatcher(sender EmailSender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

// SendConfirmation sends the booking confirmation for a finalized
// appointment to the patient's email address.
func (d *Dispatcher) SendConfirmation(ctx context.Context, appointment *models.Appointment) error {
	html, err := renderConfirmation(appointment)
	if err != nil {
		return fmt.Errorf("render confirmation email: %w", err)
	}

	msg := EmailMessage{
		To:      appointment.PatientEmail,
		ToName:  appointment.PatientName,
		Subject: fmt.Sprintf("Cita Confirmada - %s - SaludClara", appointment.ConfirmationCode),
		HTML:    html,
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation for %s: %w", appointment.ConfirmationCode, err)
	}
	return nil
}

// VisitTypeLabel is the patient-facing label for a visit type.
func VisitTypeLabel(vt models.VisitType) string {
	if vt == models.VisitVirtual {
		return "Virtual (Videollamada)"
	}
	return "Presencial"
}

var spanishWeekdays = [...]string{
	"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FormatDate renders a stored appointment date in long Spanish form, for
// example "lunes, 2 de marzo de 2026". Unparseable input is returned as-is.
func FormatDate(date string) string {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s, %d de %s de %d",
		spanishWeekdays[d.Weekday()], d.Day(), spanishMonths[d.Month()-1], d.Year())
}

type confirmationData struct {
	PatientName string
	Code        string
	VisitType   string
	Location    string
	Specialty   string
	Date        string
	Time        string
	Reason      string
	Year        int
}

func renderConfirmation(appointment *models.Appointment) (string, error) {
	data := confirmationData{
		PatientName: appointment.PatientName,
		Code:        appointment.ConfirmationCode,
		VisitType:   VisitTypeLabel(appointment.VisitType),
		Location:    appointment.Location,
		Specialty:   appointment.Specialty,
		Date:        FormatDate(appointment.Date),
		Time:        appointment.Time,
		Reason:      appointment.Reason,
		Year:        time.Now().Year(),
	}

	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #667eea; color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
        .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
        .info-box { background: white; padding: 20px; margin: 15px 0; border-radius: 8px; border-left: 4px solid #667eea; }
        .info-row { margin: 10px 0; }
        .label { font-weight: bold; color: #667eea; }
        .codigo { background: #667eea; color: white; padding: 15px; text-align: center; font-size: 24px; font-weight: bold; border-radius: 8px; margin: 20px 0; letter-spacing: 2px; }
        .footer { text-align: center; margin-top: 30px; padding-top: 20px; border-top: 2px solid #ddd; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>SaludClara</h1>
            <h2>Confirmación de Cita Médica</h2>
        </div>
        <div class="content">
            <p>Hola <strong>{{.PatientName}}</strong>,</p>
            <p>Tu cita médica ha sido confirmada exitosamente. A continuación encontrarás los detalles:</p>

            <div class="codigo">{{.Code}}</div>

            <div class="info-box">
                <h3 style="margin-top: 0; color: #667eea;">Detalles de la Cita</h3>
                <div class="info-row"><span class="label">Tipo de Cita:</span> {{.VisitType}}</div>
                {{if .Location}}<div class="info-row"><span class="label">Lugar:</span> {{.Location}}</div>{{end}}
                <div class="info-row"><span class="label">Especialidad:</span> {{.Specialty}}</div>
                <div class="info-row"><span class="label">Fecha:</span> {{.Date}}</div>
                <div class="info-row"><span class="label">Hora:</span> {{.Time}}</div>
                {{if .Reason}}<div class="info-row"><span class="label">Motivo:</span> {{.Reason}}</div>{{end}}
            </div>

            <p style="text-align: center; margin-top: 30px;">
                <strong>¿Necesitas cancelar o reprogramar?</strong><br>
                Ingresa a tu cuenta en SaludClara con el código: <strong>{{.Code}}</strong>
            </p>
        </div>
        <div class="footer">
            <p><strong>SaludClara</strong> - Tu salud, nuestra prioridad</p>
            <p>Este es un correo automático, por favor no responder.</p>
            <p>© {{.Year}} SaludClara. Todos los derechos reservados.</p>
        </div>
    </div>
</body>
</html>
`))
