package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/rs/zerolog"
)

// NotificationService sends SMS through the Textbelt API.
type NotificationService struct {
	apiKey   string
	endpoint string
	client   *http.Client
	log      zerolog.Logger
	wg       sync.WaitGroup
}

func NewNotificationService(apiKey, endpoint string, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

// NotifyDoctorOfBooking texts the doctor about a new booking request.
func (s *NotificationService) NotifyDoctorOfBooking(doctor *models.Doctor, patient *models.Patient, booking *models.Booking) {
	if doctor.Phone == "" {
		s.log.Debug().Str("doctor_id", doctor.ID.Hex()).Msg("SMS not sent: doctor has no phone number")
		return
	}
	if s.apiKey == "" {
		s.log.Debug().Msg("SMS not sent: TEXTBELT_API_KEY is not set")
		return
	}

	body := fmt.Sprintf(
		"New appointment request from %s on %s at %s.",
		patient.Name,
		booking.Date.Format("Jan 2"),
		booking.Time,
	)

	// Send in a goroutine so it doesn't block the API response
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.sendSMS(doctor.Phone, body)
	}()
}

// Wait blocks until every in-flight SMS has been handed to Textbelt.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func (s *NotificationService) sendSMS(phone, message string) {
	postBody, _ := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
		"key":     s.apiKey,
	})

	resp, err := s.client.Post(s.endpoint, "application/json", bytes.NewBuffer(postBody))
	if err != nil {
		s.log.Error().Err(err).Str("phone", phone).Msg("textbelt request failed")
		return
	}
	defer resp.Body.Close()

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		s.log.Error().Err(err).Str("phone", phone).Msg("textbelt response unreadable")
		return
	}
	if !result.Success {
		s.log.Warn().Str("phone", phone).Str("reason", result.Error).Msg("textbelt refused SMS")
		return
	}
	s.log.Info().Str("phone", phone).Msg("SMS sent")
}
