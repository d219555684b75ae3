package navigation

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"client", RoleClient, false},
		{" Waiter ", RoleWaiter, false},
		{"ADMIN", RoleAdmin, false},
		{"chef", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseRole(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestForEveryRoleHasEntries(t *testing.T) {
	for _, role := range []Role{RoleClient, RoleWaiter, RoleCashier, RoleKitchen, RoleAdmin} {
		s := For(role, 3)
		if s.Badge == "" || len(s.Entries) == 0 {
			t.Errorf("%s: empty shell %+v", role, s)
		}
	}
}

func TestUnreadCountOnlyForStaff(t *testing.T) {
	if s := For(RoleClient, 5); s.ShowNotifications || s.UnreadCount != 0 {
		t.Fatalf("client shell = %+v", s)
	}
	if s := For(RoleWaiter, 5); !s.ShowNotifications || s.UnreadCount != 5 {
		t.Fatalf("waiter shell = %+v", s)
	}
}

func TestForReturnsCopy(t *testing.T) {
	s := For(RoleClient, 0)
	s.Entries[0].Label = "changed"
	if For(RoleClient, 0).Entries[0].Label == "changed" {
		t.Fatal("shell entries share storage")
	}
}
