package domain

import "time"

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const (
	MailTypeResetPassword = "reset_password"
	MailTypeEventReminder = "event_reminder"
)

type ResetPasswordMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type EventReminderMailData struct {
	TechnicianName string    `json:"technicianName"`
	Title          string    `json:"title"`
	EventType      EventType `json:"eventType"`
	StartTime      time.Time `json:"startTime"`
	Location       string    `json:"location"`
}

// DueReminder 是到期提醒以及发送它所需的上下文
type DueReminder struct {
	Reminder    Reminder      `json:"reminder"`
	Event       ScheduleEvent `json:"event"`
	Technicians []*Technician `json:"technicians"`
}
