package models

import "time"

// AuditEntry is a log entry tagged with the list it came from.
type AuditEntry struct {
	LogEntry   `bson:",inline"`
	Department string `bson:"department" json:"department"`
}

// Client groups leads that share a marka.
type Client struct {
	Marka        string    `bson:"_id" json:"marka"`
	CustomerName string    `bson:"customerName" json:"customerName"`
	City         string    `bson:"city" json:"city"`
	LeadCount    int       `bson:"leadCount" json:"leadCount"`
	LastLeadAt   time.Time `bson:"lastLeadAt" json:"lastLeadAt"`
}
