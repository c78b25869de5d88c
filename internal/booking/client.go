package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"saludclara-server/internal/models"
)

// Client talks to the appointment lifecycle API over HTTP. It implements
// AppointmentCreator and also covers the list, cancel and stats operations
// used outside the wizard.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// envelope mirrors the server's standard response shape.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type createAppointmentPayload struct {
	OwnerID          string `json:"ownerId"`
	ConfirmationCode string `json:"confirmationCode"`
	PatientName      string `json:"patientName"`
	PatientEmail     string `json:"patientEmail"`
	PatientPhone     string `json:"patientPhone"`
	VisitType        string `json:"visitType"`
	Location         string `json:"location"`
	Specialty        string `json:"specialty"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	Reason           string `json:"reason"`
}

// CreateAppointment persists a finalized booking for the token's owner.
func (c *Client) CreateAppointment(ctx context.Context, token string, appointment *models.Appointment) (*models.Appointment, error) {
	payload := createAppointmentPayload{
		OwnerID:          appointment.OwnerID,
		ConfirmationCode: appointment.ConfirmationCode,
		PatientName:      appointment.PatientName,
		PatientEmail:     appointment.PatientEmail,
		PatientPhone:     appointment.PatientPhone,
		VisitType:        string(appointment.VisitType),
		Location:         appointment.Location,
		Specialty:        appointment.Specialty,
		Date:             appointment.Date,
		Time:             appointment.Time,
		Reason:           appointment.Reason,
	}

	env, err := c.do(ctx, http.MethodPost, "/api/v1/appointments", token, payload, http.StatusCreated)
	if err != nil {
		return nil, err
	}

	var created models.Appointment
	if err := json.Unmarshal(env.Data, &created); err != nil {
		return nil, fmt.Errorf("booking: decode created appointment: %w", err)
	}
	return &created, nil
}

// ListAppointments returns the owner's appointments, newest date first.
func (c *Client) ListAppointments(ctx context.Context, token, ownerID string) ([]models.Appointment, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/v1/appointments/owner/"+ownerID, token, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var appointments []models.Appointment
	if err := json.Unmarshal(env.Data, &appointments); err != nil {
		return nil, fmt.Errorf("booking: decode appointments: %w", err)
	}
	return appointments, nil
}

// CancelAppointment cancels the appointment with the given confirmation
// code. Safe to repeat; re-cancelling yields the same ack.
func (c *Client) CancelAppointment(ctx context.Context, token, code string) error {
	_, err := c.do(ctx, http.MethodPut, "/api/v1/appointments/"+code+"/cancel", token, nil, http.StatusOK)
	return err
}

// AppointmentStats returns the owner's aggregate appointment counts.
func (c *Client) AppointmentStats(ctx context.Context, token, ownerID string) (models.AppointmentStats, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/v1/appointments/owner/"+ownerID+"/stats", token, nil, http.StatusOK)
	if err != nil {
		return models.AppointmentStats{}, err
	}

	var stats models.AppointmentStats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		return models.AppointmentStats{}, fmt.Errorf("booking: decode stats: %w", err)
	}
	return stats, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, payload interface{}, wantStatus int) (*envelope, error) {
	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("booking: encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("booking: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("booking: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("booking: decode response (%s %s, status %d): %w", method, path, resp.StatusCode, err)
	}

	if resp.StatusCode != wantStatus {
		message := env.Error
		if message == "" {
			message = env.Message
		}
		return nil, fmt.Errorf("booking: %s %s failed with status %d: %s", method, path, resp.StatusCode, message)
	}
	return &env, nil
}
