// internal/model/stats.go
package model

// HomeStats are the counters shown on the landing page.
type HomeStats struct {
	TotalMailings  int `json:"total_mailings"`
	ActiveMailings int `json:"active_mailings"`
	UniqueClients  int `json:"unique_clients"`
}
