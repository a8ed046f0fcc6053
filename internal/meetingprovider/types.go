package meetingprovider

import "time"

// CreateMeetingRequest параметры создания видеовстречи у внешнего провайдера.
type CreateMeetingRequest struct {
	Topic           string    `json:"topic"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	HostEmail       string    `json:"host_email"`
	AttendeeEmail   string    `json:"attendee_email"`
	AttendeeName    string    `json:"attendee_name"`
}

// CreateMeetingResponse ответ провайдера на создание встречи.
type CreateMeetingResponse struct {
	MeetingID string `json:"meeting_id"`
	JoinURL   string `json:"join_url"`
	HostURL   string `json:"host_url,omitempty"`
	Password  string `json:"password,omitempty"`
}
