package event

// Envelope is the WhatsApp Business webhook payload shape.
type Envelope struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

type ChangeValue struct {
	Contacts []Contact        `json:"contacts"`
	Messages []InboundMessage `json:"messages"`
	Statuses []StatusUpdate   `json:"statuses"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// InboundMessage is one customer message inside a WhatsApp webhook delivery.
type InboundMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
	Button *struct {
		Payload string `json:"payload"`
		Text    string `json:"text"`
	} `json:"button"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
	} `json:"interactive"`
}

// BodyText extracts the actionable body of a message: a template button
// payload wins over an interactive reply id, which wins over free text.
func (m *InboundMessage) BodyText() string {
	if m.Button != nil && m.Button.Payload != "" {
		return m.Button.Payload
	}
	if m.Interactive != nil && m.Interactive.ButtonReply != nil {
		return m.Interactive.ButtonReply.ID
	}
	if m.Text != nil {
		return m.Text.Body
	}

	return ""
}

// StatusUpdate is a delivery-status callback for a previously sent message.
type StatusUpdate struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RecipientID string `json:"recipient_id"`
	Timestamp   string `json:"timestamp"`
}

// FirstMessage returns the first inbound message in the envelope together
// with its contact record, if any.
func (e *Envelope) FirstMessage() (*InboundMessage, *Contact) {
	for _, entry := range e.Entry {
		for _, c := range entry.Changes {
			if len(c.Value.Messages) == 0 {
				continue
			}
			msg := c.Value.Messages[0]
			if len(c.Value.Contacts) > 0 {
				contact := c.Value.Contacts[0]
				return &msg, &contact
			}
			return &msg, nil
		}
	}

	return nil, nil
}

// FirstStatus returns the first status update in the envelope, if any.
func (e *Envelope) FirstStatus() *StatusUpdate {
	for _, entry := range e.Entry {
		for _, c := range entry.Changes {
			if len(c.Value.Statuses) > 0 {
				st := c.Value.Statuses[0]
				return &st
			}
		}
	}

	return nil
}
