// internal/model/attempt.go
package model

import "time"

type AttemptStatus string

const (
	AttemptSuccess AttemptStatus = "success"
	AttemptFailed  AttemptStatus = "failed"
)

// MailingAttempt is one recipient-level send outcome. Rows are never updated.
type MailingAttempt struct {
	ID             int           `db:"id" json:"id"`
	MailingID      int           `db:"mailing_id" json:"mailing_id"`
	AttemptTime    time.Time     `db:"attempt_time" json:"attempt_time"`
	Status         AttemptStatus `db:"status" json:"status"`
	ServerResponse string        `db:"server_response" json:"server_response"`
}
