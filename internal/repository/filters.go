package repository

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"lead-workflow/internal/models"
)

// LeadQuery selects the leads that belong to an employee. An empty
// Department means every department.
type LeadQuery struct {
	EmployeeID string
	Department models.Department
	InQueue    bool
}

// LeadLookupFilter matches a lead by storage id (hex or raw) or by its
// business leadId.
func LeadLookupFilter(raw string) bson.M {
	raw = strings.TrimSpace(raw)
	candidates := models.IDCandidates(raw)
	return bson.M{"$or": []bson.M{
		{"_id": bson.M{"$in": candidates}},
		{"leadId": raw},
	}}
}

// EmployeeLeadsFilter ORs the department sections' employeeId with the
// current assignment, trying both the raw and ObjectID forms of the id.
func EmployeeLeadsFilter(q LeadQuery) bson.M {
	candidates := models.IDCandidates(q.EmployeeID)

	departments := models.AllDepartments
	if q.Department != "" {
		departments = []models.Department{q.Department}
	}

	or := make([]bson.M, 0, len(departments)+2)
	for _, d := range departments {
		or = append(or, bson.M{d.Field() + ".employeeId": bson.M{"$in": candidates}})
	}
	or = append(or,
		bson.M{"currentAssignedEmployee.employeeId": bson.M{"$in": candidates}},
		bson.M{"currentAssignedEmployee.employeeName": q.EmployeeID},
	)

	filter := bson.M{"$or": or}
	if q.InQueue && q.Department != "" {
		filter["currentStatus"] = StatusRegex(q.Department)
	}
	return filter
}

// StatusRegex matches a currentStatus naming d, by label or key, ignoring case.
func StatusRegex(d models.Department) primitive.Regex {
	pattern := "^(" + regexp.QuoteMeta(d.Label()) + "|" + regexp.QuoteMeta(d.Field()) + ")$"
	return primitive.Regex{Pattern: pattern, Options: "i"}
}
