package intent

import "strings"

// Intent is the closed set of actions an inbound customer message can drive.
type Intent string

const (
	IntentNone        Intent = "none"
	IntentConfirm     Intent = "confirm"
	IntentAddressOK   Intent = "address_ok"
	IntentAddressEdit Intent = "address_edit"
	IntentCancel      Intent = "cancel"
)

// Resolver maps a message body to an Intent. The phrase-list matcher below is
// the default strategy; other locales or an NLU backend can be swapped in.
type Resolver interface {
	Resolve(body string) Intent
}

// PhraseResolver matches button payloads exactly and English phrase lists
// case-insensitively.
type PhraseResolver struct{}

func NewPhraseResolver() *PhraseResolver {
	return &PhraseResolver{}
}

// Button payloads sent by our own templates come back verbatim.
var buttonPayloads = map[string]Intent{
	"CONFIRM_COD_YES": IntentConfirm,
	"CONFIRM_COD_NO":  IntentCancel,
	"ADDRESS_CORRECT": IntentAddressOK,
	"ADDRESS_EDIT":    IntentAddressEdit,
}

var phrases = map[Intent][]string{
	IntentConfirm:     {"yes, confirm my order", "confirm order", "confirm my order", "yes confirm"},
	IntentAddressOK:   {"address is correct", "correct address", "yes, address is correct"},
	IntentAddressEdit: {"update address", "change address", "edit address"},
	IntentCancel:      {"cancel order", "cancel my order", "no, cancel"},
}

func (r *PhraseResolver) Resolve(body string) Intent {
	body = strings.TrimSpace(body)
	if body == "" {
		return IntentNone
	}

	if it, ok := buttonPayloads[body]; ok {
		return it
	}

	lower := strings.ToLower(body)
	for _, it := range []Intent{IntentConfirm, IntentAddressOK, IntentAddressEdit, IntentCancel} {
		for _, p := range phrases[it] {
			if lower == p {
				return it
			}
		}
	}

	return IntentNone
}
