// internal/model/mailing.go
package model

import "time"

type MailingStatus string

const (
	MailingCreated   MailingStatus = "created"
	MailingRunning   MailingStatus = "running"
	MailingCompleted MailingStatus = "completed"
)

// Mailing sends one message to a set of clients inside [FirstSendTime, EndTime].
type Mailing struct {
	ID            int           `db:"id" json:"id"`
	FirstSendTime time.Time     `db:"first_send_time" json:"first_send_time"`
	EndTime       time.Time     `db:"end_time" json:"end_time"`
	Status        MailingStatus `db:"status" json:"status"`
	MessageID     int           `db:"message_id" json:"message_id"`
	ClientIDs     []int         `json:"client_ids"`
	OwnerID       int           `db:"owner_id" json:"owner_id"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// InWindow reports whether t lies inside the closed send window.
func (m *Mailing) InWindow(t time.Time) bool {
	return !t.Before(m.FirstSendTime) && !t.After(m.EndTime)
}

// MailingStatistics aggregates the attempt log of one mailing.
type MailingStatistics struct {
	MailingID          int           `json:"mailing_id"`
	Status             MailingStatus `json:"status"`
	OwnerID            int           `json:"owner_id"`
	TotalAttempts      int           `json:"total_attempts"`
	SuccessfulAttempts int           `json:"successful_attempts"`
	FailedAttempts     int           `json:"failed_attempts"`
}
