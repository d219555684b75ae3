// Package navigation describes the per-role page frame: the role badge and
// the side menu entries. It carries no business logic.
package navigation

import (
	"fmt"
	"strings"
)

// Role is a display-only badge; nothing is authorized from it
type Role string

const (
	RoleClient  Role = "client"
	RoleWaiter  Role = "waiter"
	RoleCashier Role = "cashier"
	RoleKitchen Role = "kitchen"
	RoleAdmin   Role = "admin"
)

// Entry is one side menu link
type Entry struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Icon  string `json:"icon,omitempty"`
}

// Shell is the frame rendered around every page of a role
type Shell struct {
	Role              Role    `json:"role"`
	Badge             string  `json:"badge"`
	Entries           []Entry `json:"entries"`
	ShowNotifications bool    `json:"show_notifications"`
	UnreadCount       int     `json:"unread_count"`
}

var badges = map[Role]string{
	RoleClient:  "Cliente",
	RoleWaiter:  "Mesero",
	RoleCashier: "Cajero",
	RoleKitchen: "Cocina",
	RoleAdmin:   "Administrador",
}

var menus = map[Role][]Entry{
	RoleClient: {
		{Label: "Menú", Path: "/menu", Icon: "utensils"},
		{Label: "Mi orden", Path: "/cart", Icon: "shopping-cart"},
	},
	RoleWaiter: {
		{Label: "Mesas", Path: "/tables", Icon: "table"},
		{Label: "Tomar orden", Path: "/menu", Icon: "clipboard"},
		{Label: "Orden actual", Path: "/cart", Icon: "shopping-cart"},
		{Label: "Notificaciones", Path: "/notifications", Icon: "bell"},
	},
	RoleCashier: {
		{Label: "Órdenes", Path: "/orders", Icon: "receipt"},
		{Label: "Facturas", Path: "/orders/{number}/invoice", Icon: "file-invoice"},
		{Label: "Notificaciones", Path: "/notifications", Icon: "bell"},
	},
	RoleKitchen: {
		{Label: "Órdenes", Path: "/orders", Icon: "fire"},
		{Label: "Estaciones", Path: "/kitchen/stations", Icon: "kitchen"},
		{Label: "Notificaciones", Path: "/notifications", Icon: "bell"},
	},
	RoleAdmin: {
		{Label: "Menú", Path: "/menu", Icon: "utensils"},
		{Label: "Mesas", Path: "/tables", Icon: "table"},
		{Label: "Órdenes", Path: "/orders", Icon: "receipt"},
		{Label: "Estaciones", Path: "/kitchen/stations", Icon: "kitchen"},
		{Label: "Notificaciones", Path: "/notifications", Icon: "bell"},
	},
}

// ParseRole accepts a role name in any letter case
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := badges[r]; !ok {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return r, nil
}

// IsStaff reports whether the role sees the notification feed
func (r Role) IsStaff() bool {
	return r != RoleClient
}

// For builds the shell for role. unread is shown only to staff.
func For(role Role, unread int) Shell {
	entries := make([]Entry, len(menus[role]))
	copy(entries, menus[role])

	s := Shell{
		Role:              role,
		Badge:             badges[role],
		Entries:           entries,
		ShowNotifications: role.IsStaff(),
	}
	if s.ShowNotifications {
		s.UnreadCount = unread
	}
	return s
}
