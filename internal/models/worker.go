package models

import (
	"strings"
	"time"
)

// StationStatus represents whether a kitchen station is reporting heartbeats
type StationStatus string

const (
	StationOnline  StationStatus = "online"
	StationOffline StationStatus = "offline"
)

// Station is a kitchen worker process that cooks orders
type Station struct {
	Name            string        `json:"station_name"`
	OrderTypes      []OrderType   `json:"order_types,omitempty"`
	Status          StationStatus `json:"status"`
	LastSeen        time.Time     `json:"last_seen"`
	OrdersProcessed int           `json:"orders_processed"`
}

// ParseOrderTypes parses a comma-separated string of order types into a slice
func ParseOrderTypes(orderTypesStr string) []OrderType {
	if orderTypesStr == "" {
		return nil
	}

	var orderTypes []OrderType
	for _, part := range strings.Split(orderTypesStr, ",") {
		if t, err := ParseOrderType(strings.TrimSpace(part)); err == nil {
			orderTypes = append(orderTypes, t)
		}
	}
	return orderTypes
}

// CanHandle reports whether the station cooks the given order type.
// A station without specializations handles everything.
func (s *Station) CanHandle(orderType OrderType) bool {
	if len(s.OrderTypes) == 0 {
		return true
	}
	for _, t := range s.OrderTypes {
		if t == orderType {
			return true
		}
	}
	return false
}

// IsOnline checks if a station is considered online based on heartbeat interval
func (s *Station) IsOnline(heartbeatInterval time.Duration) bool {
	if s.Status == StationOffline {
		return false
	}
	// Consider station offline if last seen is more than 2 * heartbeat interval ago
	return time.Since(s.LastSeen) <= 2*heartbeatInterval
}
