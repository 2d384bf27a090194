package resource

import "strings"

// Messages are encoded into a single resource payload: 0x1E separates
// records, 0x1F separates the subject from the body within a record.
const (
	recordSeparator = "\x1e"
	unitSeparator   = "\x1f"
)

// A Message is one mailbox entry.
type Message struct {
	Subject string
	Body    string
}

// A Mailbox delivers string-encoded messages between host identities. Each
// identity owns one inbox resource; the whole inbox is a single
// delimiter-separated payload attached to that resource.
type Mailbox struct {
	store PayloadStore
}

// NewMailbox creates a Mailbox backed by the given store.
func NewMailbox(store PayloadStore) *Mailbox {
	return &Mailbox{store: store}
}

// InboxResourceName returns the name of the resource holding the inbox of
// the given identity.
func InboxResourceName(selfID string) string {
	return "mailbox/" + selfID
}

// ComposeMessage builds a message. Separator characters are stripped from
// both fields so that the composed message always survives encoding.
func (m *Mailbox) ComposeMessage(subject, body string) Message {
	return Message{
		Subject: stripSeparators(subject),
		Body:    stripSeparators(body),
	}
}

// Post appends a message to the recipient's inbox, creating the inbox
// resource on first use.
func (m *Mailbox) Post(recipient string, msg Message) {
	name := InboxResourceName(recipient)

	encoded := msg.Subject + unitSeparator + msg.Body

	res, ok := m.store.Lookup(name)
	if ok && res.Payload != "" {
		encoded = res.Payload + recordSeparator + encoded
	}

	m.store.SetPayload(name, encoded)
}

// ReadAndClearInbox returns all pending messages for the identity, oldest
// first, and empties the inbox. Malformed records are skipped.
func (m *Mailbox) ReadAndClearInbox(selfID string) []Message {
	name := InboxResourceName(selfID)

	res, ok := m.store.Lookup(name)
	if !ok || res.Payload == "" {
		return nil
	}

	m.store.SetPayload(name, "")

	var messages []Message
	for _, record := range strings.Split(res.Payload, recordSeparator) {
		parts := strings.Split(record, unitSeparator)
		if len(parts) != 2 {
			continue
		}

		messages = append(messages, Message{Subject: parts[0], Body: parts[1]})
	}

	return messages
}

func stripSeparators(s string) string {
	s = strings.ReplaceAll(s, recordSeparator, "")
	s = strings.ReplaceAll(s, unitSeparator, "")
	return s
}
