package firewall

import "testing"

func TestAddrFamily(t *testing.T) {
	cases := []struct {
		addr    string
		family  Family
		canon   string
		wantErr bool
	}{
		{"192.0.2.1", FamilyV4, "192.0.2.1", false},
		{"::ffff:192.0.2.1", FamilyV4, "192.0.2.1", false},
		{"2001:db8::1", FamilyV6, "2001:db8::1", false},
		{"2001:DB8::1", FamilyV6, "2001:db8::1", false},
		{"not-an-ip", 0, "", true},
		{"", 0, "", true},
	}

	for _, tc := range cases {
		fam, canon, err := AddrFamily(tc.addr)
		if tc.wantErr {
			if err == nil {
				t.Errorf("AddrFamily(%q): expected error", tc.addr)
			}
			continue
		}
		if err != nil {
			t.Errorf("AddrFamily(%q): %v", tc.addr, err)
			continue
		}
		if fam != tc.family || canon != tc.canon {
			t.Errorf("AddrFamily(%q) = %v, %q; want %v, %q", tc.addr, fam, canon, tc.family, tc.canon)
		}
	}
}

func TestSetNames(t *testing.T) {
	if got := BannedSet(FamilyV4); got != "banned_v4" {
		t.Errorf("BannedSet(v4) = %q", got)
	}
	if got := BannedSet(FamilyV6); got != "banned_v6" {
		t.Errorf("BannedSet(v6) = %q", got)
	}
	if got := AllowSet(22, FamilyV4); got != "allow_22_v4" {
		t.Errorf("AllowSet(22, v4) = %q", got)
	}
	if got := AllowSet(443, FamilyV6); got != "allow_443_v6" {
		t.Errorf("AllowSet(443, v6) = %q", got)
	}
}
