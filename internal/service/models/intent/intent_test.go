package intent

import "testing"

func TestPhraseResolver(t *testing.T) {
	r := NewPhraseResolver()

	cases := []struct {
		body string
		want Intent
	}{
		{"CONFIRM_COD_YES", IntentConfirm},
		{"CONFIRM_COD_NO", IntentCancel},
		{"ADDRESS_CORRECT", IntentAddressOK},
		{"ADDRESS_EDIT", IntentAddressEdit},
		{"Yes, confirm my order", IntentConfirm},
		{"ADDRESS IS CORRECT", IntentAddressOK},
		{"update address", IntentAddressEdit},
		{"Cancel my order", IntentCancel},
		{"hi, when will it arrive?", IntentNone},
		{"", IntentNone},
		{"   ", IntentNone},
	}

	for _, tc := range cases {
		if got := r.Resolve(tc.body); got != tc.want {
			t.Errorf("Resolve(%q) = %q, want %q", tc.body, got, tc.want)
		}
	}
}
