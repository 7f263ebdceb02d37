package services

import (
	"sort"

	"lead-workflow/internal/models"
)

// AggregateLogs merges the four department logs and the lead-level log into
// one feed, newest first. Entries without a timestamp sort last. Nothing is
// deduplicated.
func AggregateLogs(lead *models.Lead) []models.AuditEntry {
	total := len(lead.Logs)
	for _, d := range models.AllDepartments {
		if rec := lead.SubRecord(d); rec != nil {
			total += len(rec.Envelope().Logs)
		}
	}

	entries := make([]models.AuditEntry, 0, total)
	for _, d := range models.AllDepartments {
		rec := lead.SubRecord(d)
		if rec == nil {
			continue
		}
		for _, l := range rec.Envelope().Logs {
			entries = append(entries, models.AuditEntry{LogEntry: l, Department: d.Label()})
		}
	}
	for _, l := range lead.Logs {
		entries = append(entries, models.AuditEntry{LogEntry: l, Department: models.GeneralLogLabel})
	}

	// zero time is before every real timestamp, so missing ones end up last
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries
}
