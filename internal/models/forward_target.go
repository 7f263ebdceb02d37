package models

import (
	"fmt"
	"strings"
)

type TargetKind int

const (
	TargetUnassign TargetKind = iota
	TargetManager
	TargetEmployee
)

func (k TargetKind) String() string {
	switch k {
	case TargetUnassign:
		return "unassign"
	case TargetManager:
		return "manager"
	case TargetEmployee:
		return "employee"
	}
	return "unknown"
}

const (
	targetAll       = "all"
	managerPrefix   = "manager:"
	employeePrefix  = "employee:"
	statusSeparator = "|dept:"
)

// ForwardTarget is the parsed form of a forward target string:
//
//	all
//	manager:<id>[|dept:<status>]
//	employee:<id>[|dept:<status>]
//
// Manager and employee targets are handled the same way; the kind is kept
// for metrics and notifications.
type ForwardTarget struct {
	Kind   TargetKind
	ID     string
	Status *string
}

func (t ForwardTarget) IsUnassign() bool { return t.Kind == TargetUnassign }

// ParseForwardTarget is the only place the target grammar is interpreted.
// Keywords are case sensitive and the status suffix is kept verbatim.
func ParseForwardTarget(raw string) (ForwardTarget, error) {
	if raw == targetAll {
		return ForwardTarget{Kind: TargetUnassign}, nil
	}

	var (
		kind TargetKind
		rest string
	)
	switch {
	case strings.HasPrefix(raw, managerPrefix):
		kind, rest = TargetManager, strings.TrimPrefix(raw, managerPrefix)
	case strings.HasPrefix(raw, employeePrefix):
		kind, rest = TargetEmployee, strings.TrimPrefix(raw, employeePrefix)
	default:
		return ForwardTarget{}, fmt.Errorf("%w: %q", ErrInvalidTarget, raw)
	}

	target := ForwardTarget{Kind: kind, ID: rest}
	if idx := strings.Index(rest, statusSeparator); idx >= 0 {
		status := rest[idx+len(statusSeparator):]
		target.ID = rest[:idx]
		target.Status = &status
	}
	if target.ID == "" {
		return ForwardTarget{}, fmt.Errorf("%w: missing id in %q", ErrInvalidTarget, raw)
	}
	return target, nil
}

// String renders the target back into its wire form.
func (t ForwardTarget) String() string {
	var b strings.Builder
	switch t.Kind {
	case TargetUnassign:
		return targetAll
	case TargetManager:
		b.WriteString(managerPrefix)
	case TargetEmployee:
		b.WriteString(employeePrefix)
	}
	b.WriteString(t.ID)
	if t.Status != nil {
		b.WriteString(statusSeparator)
		b.WriteString(*t.Status)
	}
	return b.String()
}
