package status

import "testing"

func TestParse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want Status
	}{
		{"available", Available},
		{"not_available", NotAvailable},
		{"error", Error},
		{"Tickets Potentially Available", Available},
		{"Tickets Not Available\n", NotAvailable},
		{"Error", Error},
	}
	for _, tt := range tests {
		got, err := Parse(tt.raw)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("Parse(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}

	for _, bad := range []string{"", "maybe", "\x00\x01"} {
		if _, err := Parse(bad); err == nil {
			t.Fatalf("Parse(%q) expected error", bad)
		}
	}
}

func TestValid(t *testing.T) {
	t.Parallel()
	if Status("").Valid() || Status("unknown").Valid() {
		t.Fatal("unexpected valid status")
	}
	if !Available.Valid() || !NotAvailable.Valid() || !Error.Valid() {
		t.Fatal("expected the three statuses to be valid")
	}
}
