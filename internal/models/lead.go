package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AssignedEmployee struct {
	EmployeeID   string `bson:"employeeId" json:"employeeId"`
	EmployeeName string `bson:"employeeName" json:"employeeName"`
}

// LogEntry is immutable once appended.
type LogEntry struct {
	EmployeeID   string    `bson:"employeeId" json:"employeeId"`
	EmployeeName string    `bson:"employeeName" json:"employeeName"`
	Timestamp    time.Time `bson:"timestamp" json:"timestamp"`
	Comment      string    `bson:"comment" json:"comment"`
}

// UnmarshalBSON accepts the timestamp as a BSON date, epoch milliseconds or
// an RFC 3339 string. Anything else decodes to the zero time.
func (l *LogEntry) UnmarshalBSON(data []byte) error {
	var raw struct {
		EmployeeID   string        `bson:"employeeId"`
		EmployeeName string        `bson:"employeeName"`
		Timestamp    bson.RawValue `bson:"timestamp"`
		Comment      string        `bson:"comment"`
	}
	if err := bson.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = LogEntry{
		EmployeeID:   raw.EmployeeID,
		EmployeeName: raw.EmployeeName,
		Timestamp:    logTime(raw.Timestamp),
		Comment:      raw.Comment,
	}
	return nil
}

func logTime(v bson.RawValue) time.Time {
	switch v.Type {
	case bson.TypeDateTime:
		return time.UnixMilli(v.DateTime()).UTC()
	case bson.TypeInt64:
		return time.UnixMilli(v.Int64()).UTC()
	case bson.TypeInt32:
		return time.UnixMilli(int64(v.Int32())).UTC()
	case bson.TypeDouble:
		return time.UnixMilli(int64(v.Double())).UTC()
	case bson.TypeString:
		if t, err := time.Parse(time.RFC3339, v.StringValue()); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

type Product struct {
	Name     string  `bson:"name" json:"name" validate:"required"`
	Quantity float64 `bson:"quantity" json:"quantity" validate:"gte=0"`
	Unit     string  `bson:"unit" json:"unit"`
	Notes    string  `bson:"notes" json:"notes"`
	ImageURL string  `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
}

// DepartmentEnvelope is shared by every department sub-record. EmployeeID
// may hold either a raw id or the hex of an ObjectID written by older
// clients; the driver decodes both into a string.
type DepartmentEnvelope struct {
	EmployeeID string     `bson:"employeeId,omitempty" json:"employeeId,omitempty"`
	ManagerID  string     `bson:"managerId,omitempty" json:"managerId,omitempty"`
	Logs       []LogEntry `bson:"logs" json:"logs"`
}

func (e *DepartmentEnvelope) Envelope() *DepartmentEnvelope { return e }

type SubRecord interface {
	Envelope() *DepartmentEnvelope
	FileURLs() []string
}

type CustomerServiceDetails struct {
	DepartmentEnvelope `bson:",inline"`
	CustomerName       string    `bson:"customerName" json:"customerName" validate:"required"`
	CustomerPhone      string    `bson:"customerPhone" json:"customerPhone"`
	CustomerEmail      string    `bson:"customerEmail" json:"customerEmail" validate:"omitempty,email"`
	City               string    `bson:"city" json:"city"`
	Marka              string    `bson:"marka" json:"marka"`
	Requirement        string    `bson:"requirement" json:"requirement"`
	Products           []Product `bson:"products" json:"products" validate:"dive"`
	UploadFiles        []string  `bson:"uploadFiles" json:"uploadFiles"`
}

func (d *CustomerServiceDetails) FileURLs() []string {
	return append(productImages(d.Products), d.UploadFiles...)
}

type SourcingDetails struct {
	DepartmentEnvelope `bson:",inline"`
	SupplierName       string    `bson:"supplierName" json:"supplierName"`
	SupplierContact    string    `bson:"supplierContact" json:"supplierContact"`
	UnitPrice          float64   `bson:"unitPrice" json:"unitPrice" validate:"gte=0"`
	Currency           string    `bson:"currency" json:"currency"`
	Products           []Product `bson:"products" json:"products" validate:"dive"`
	UploadDocuments    []string  `bson:"uploadDocuments" json:"uploadDocuments"`
}

func (d *SourcingDetails) FileURLs() []string {
	return append(productImages(d.Products), d.UploadDocuments...)
}

type ShippingDetails struct {
	DepartmentEnvelope `bson:",inline"`
	Carrier            string     `bson:"carrier" json:"carrier"`
	Mode               string     `bson:"mode" json:"mode" validate:"omitempty,oneof=sea air road rail"`
	OriginPort         string     `bson:"originPort" json:"originPort"`
	DestinationPort    string     `bson:"destinationPort" json:"destinationPort"`
	ETA                *time.Time `bson:"eta,omitempty" json:"eta,omitempty"`
	FreightCost        float64    `bson:"freightCost" json:"freightCost" validate:"gte=0"`
	UploadDocuments    []string   `bson:"uploadDocuments" json:"uploadDocuments"`
}

func (d *ShippingDetails) FileURLs() []string {
	return append([]string(nil), d.UploadDocuments...)
}

type SalesDetails struct {
	DepartmentEnvelope `bson:",inline"`
	QuotedPrice        float64  `bson:"quotedPrice" json:"quotedPrice" validate:"gte=0"`
	FinalPrice         float64  `bson:"finalPrice" json:"finalPrice" validate:"gte=0"`
	PaymentTerms       string   `bson:"paymentTerms" json:"paymentTerms"`
	InvoiceNumber      string   `bson:"invoiceNumber" json:"invoiceNumber"`
	DealStatus         string   `bson:"dealStatus" json:"dealStatus"`
	UploadDocuments    []string `bson:"uploadDocuments" json:"uploadDocuments"`
}

func (d *SalesDetails) FileURLs() []string {
	return append([]string(nil), d.UploadDocuments...)
}

func productImages(products []Product) []string {
	var urls []string
	for _, p := range products {
		if p.ImageURL != "" {
			urls = append(urls, p.ImageURL)
		}
	}
	return urls
}

type Lead struct {
	ID                      primitive.ObjectID      `bson:"_id,omitempty" json:"_id"`
	LeadID                  string                  `bson:"leadId" json:"leadId"`
	CurrentStatus           string                  `bson:"currentStatus" json:"currentStatus"`
	CurrentAssignedEmployee *AssignedEmployee       `bson:"currentAssignedEmployee,omitempty" json:"currentAssignedEmployee,omitempty"`
	CustomerService         *CustomerServiceDetails `bson:"customerService,omitempty" json:"customerService,omitempty"`
	Sourcing                *SourcingDetails        `bson:"sourcing,omitempty" json:"sourcing,omitempty"`
	Shipping                *ShippingDetails        `bson:"shipping,omitempty" json:"shipping,omitempty"`
	Sales                   *SalesDetails           `bson:"sales,omitempty" json:"sales,omitempty"`
	Logs                    []LogEntry              `bson:"logs" json:"logs"`
	CreatedAt               time.Time               `bson:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time               `bson:"updatedAt" json:"updatedAt"`
}

// NewLeadID returns the business identifier for a lead created at t.
func NewLeadID(t time.Time) string {
	return fmt.Sprintf("LEAD-%d", t.UnixMilli())
}

// SubRecord returns nil when the department section has not been filled.
func (l *Lead) SubRecord(d Department) SubRecord {
	switch d {
	case DepartmentCustomerService:
		if l.CustomerService != nil {
			return l.CustomerService
		}
	case DepartmentSourcing:
		if l.Sourcing != nil {
			return l.Sourcing
		}
	case DepartmentShipping:
		if l.Shipping != nil {
			return l.Shipping
		}
	case DepartmentSales:
		if l.Sales != nil {
			return l.Sales
		}
	}
	return nil
}

func (l *Lead) SetSubRecord(d Department, rec SubRecord) error {
	switch r := rec.(type) {
	case *CustomerServiceDetails:
		if d == DepartmentCustomerService {
			l.CustomerService = r
			return nil
		}
	case *SourcingDetails:
		if d == DepartmentSourcing {
			l.Sourcing = r
			return nil
		}
	case *ShippingDetails:
		if d == DepartmentShipping {
			l.Shipping = r
			return nil
		}
	case *SalesDetails:
		if d == DepartmentSales {
			l.Sales = r
			return nil
		}
	}
	return fmt.Errorf("%w: %T does not belong to %s", ErrValidation, rec, d)
}

// NewSubRecord returns an empty record of the concrete type for d.
func NewSubRecord(d Department) SubRecord {
	switch d {
	case DepartmentCustomerService:
		return &CustomerServiceDetails{}
	case DepartmentSourcing:
		return &SourcingDetails{}
	case DepartmentShipping:
		return &ShippingDetails{}
	case DepartmentSales:
		return &SalesDetails{}
	}
	return nil
}

// FileURLs lists every uploaded file referenced anywhere on the lead.
func (l *Lead) FileURLs() []string {
	var urls []string
	for _, d := range AllDepartments {
		if rec := l.SubRecord(d); rec != nil {
			urls = append(urls, rec.FileURLs()...)
		}
	}
	return urls
}
