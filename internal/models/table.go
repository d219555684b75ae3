package models

import "fmt"

// TableStatus represents the occupancy state of a table
type TableStatus string

const (
	TableFree        TableStatus = "free"
	TableOccupied    TableStatus = "occupied"
	TableReserved    TableStatus = "reserved"
	TableMaintenance TableStatus = "maintenance"
)

// Table represents a physical seating unit
type Table struct {
	Number        int         `json:"number"`
	Capacity      int         `json:"capacity"`
	Location      string      `json:"location"`
	Status        TableStatus `json:"status"`
	AssignedStaff *string     `json:"assigned_staff,omitempty"`
}

// ParseTableStatus validates a raw status string
func ParseTableStatus(raw string) (TableStatus, error) {
	switch TableStatus(raw) {
	case TableFree, TableOccupied, TableReserved, TableMaintenance:
		return TableStatus(raw), nil
	default:
		return "", &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("status must be one of: free, occupied, reserved, maintenance (got %q)", raw),
		}
	}
}
