package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMarka(t *testing.T) {
	tests := []struct {
		name, customer, city, want string
	}{
		{"single word", "ravi", "Mumbai", "RAV-MUM"},
		{"initials", "Shree Ganesh Traders Pvt", "Pune", "SGT-PUN"},
		{"punctuation ignored", "A.K. Exports", "New Delhi", "AKE-NEW"},
		{"no city", "Ravi", "", "RAV"},
		{"short name", "Li", "Xi'an", "LI-XIA"},
		{"no name", "", "Mumbai", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Marka(tt.customer, tt.city))
		})
	}
}

func TestDepartmentFromManagerID(t *testing.T) {
	d, ok := DepartmentFromManagerID("so-mgr-3")
	require.True(t, ok)
	assert.Equal(t, DepartmentSourcing, d)

	d, ok = DepartmentFromManagerID("CS-MGR-1")
	require.True(t, ok)
	assert.Equal(t, DepartmentCustomerService, d)

	_, ok = DepartmentFromManagerID("X")
	assert.False(t, ok)
	_, ok = DepartmentFromManagerID("ZZ-1")
	assert.False(t, ok)
}

func TestParseDepartment(t *testing.T) {
	for raw, want := range map[string]Department{
		"customerService":  DepartmentCustomerService,
		"Customer Service": DepartmentCustomerService,
		"customer-service": DepartmentCustomerService,
		"SOURCING":         DepartmentSourcing,
		"sh":               DepartmentShipping,
		"Sales":            DepartmentSales,
	} {
		got, err := ParseDepartment(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseDepartment("marketing")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGenerateEmpID(t *testing.T) {
	assert.Equal(t, "SO-MGR-0007", GenerateEmpID(DepartmentSourcing, RoleManager, 7))
	assert.Equal(t, "CS-EMP-0012", GenerateEmpID(DepartmentCustomerService, RoleEmployee, 12))
}

func TestIDCandidates(t *testing.T) {
	assert.Nil(t, IDCandidates("  "))
	assert.Equal(t, []interface{}{"M1"}, IDCandidates("M1"))

	oid := primitive.NewObjectID()
	got := IDCandidates(oid.Hex())
	require.Len(t, got, 2)
	assert.Equal(t, oid.Hex(), got[0])
	assert.Equal(t, oid, got[1])

	assert.Equal(t, oid.Hex(), CanonicalID(oid))
	assert.Equal(t, "M1", CanonicalID(" M1 "))
	assert.Equal(t, "", CanonicalID(42))
}

func TestLead_FileURLs(t *testing.T) {
	lead := Lead{
		CustomerService: &CustomerServiceDetails{
			Products:    []Product{{Name: "bolt", ImageURL: "http://m/a.png"}, {Name: "nut"}},
			UploadFiles: []string{"http://m/b.pdf"},
		},
		Shipping: &ShippingDetails{UploadDocuments: []string{"http://m/c.pdf"}},
	}
	assert.Equal(t, []string{"http://m/a.png", "http://m/b.pdf", "http://m/c.pdf"}, lead.FileURLs())
	assert.Nil(t, lead.SubRecord(DepartmentSales))
}

func TestLogEntry_UnmarshalTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	cases := []struct {
		name  string
		value interface{}
		want  time.Time
	}{
		{"date", want, want},
		{"millis", want.UnixMilli(), want},
		{"rfc3339", "2024-03-01T16:00:00.000+05:30", want},
		{"garbage", "not-a-date", time.Time{}},
		{"missing", nil, time.Time{}},
		{"document", bson.M{"at": 1}, time.Time{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := bson.M{"employeeId": "CS-EMP-0001", "comment": "Lead created"}
			if tc.value != nil {
				doc["timestamp"] = tc.value
			}
			data, err := bson.Marshal(doc)
			require.NoError(t, err)

			var entry LogEntry
			require.NoError(t, bson.Unmarshal(data, &entry))
			assert.True(t, tc.want.Equal(entry.Timestamp), "got %v", entry.Timestamp)
			assert.Equal(t, "CS-EMP-0001", entry.EmployeeID)
			assert.Equal(t, "Lead created", entry.Comment)
		})
	}
}

func TestLead_SetSubRecord(t *testing.T) {
	var lead Lead
	require.NoError(t, lead.SetSubRecord(DepartmentSourcing, &SourcingDetails{SupplierName: "Acme"}))
	assert.Equal(t, "Acme", lead.Sourcing.SupplierName)

	err := lead.SetSubRecord(DepartmentSales, &SourcingDetails{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEmployee_ValidateAndForwardCandidate(t *testing.T) {
	emp := Employee{Name: "Asha", Phone: "9876543210", Department: DepartmentSourcing, Type: RoleManager, EmpID: "SO-MGR-0001"}
	require.NoError(t, emp.Validate())
	assert.Equal(t, "manager:SO-MGR-0001|dept:Sourcing", emp.ForwardCandidate().Target)

	emp.Type = RoleEmployee
	assert.Equal(t, "employee:SO-MGR-0001|dept:Sourcing", emp.ForwardCandidate().Target)

	bad := Employee{Name: "X", Phone: "1", Department: "hr", Type: "boss"}
	assert.ErrorIs(t, bad.Validate(), ErrValidation)
}

func TestEmployee_Password(t *testing.T) {
	var emp Employee
	require.NoError(t, emp.HashPassword("s3cret"))
	assert.NotEqual(t, "s3cret", emp.Password)
	assert.NoError(t, emp.CheckPassword("s3cret"))
	assert.Error(t, emp.CheckPassword("nope"))
}
