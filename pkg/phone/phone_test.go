package phone

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"bare ten digits", "9876543210", "919876543210"},
		{"formatted with country code", "+91 98765 43210", "919876543210"},
		{"dashes and parens", "(987) 654-3210", "919876543210"},
		{"already normalized", "919876543210", "919876543210"},
		{"short number kept as-is", "12345", "12345"},
		{"non-digits only", "abc", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"", "9876543210", "+91 98765 43210", "12345", "00919876543210"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}
