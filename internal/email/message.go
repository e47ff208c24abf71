package email

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies the template family of an outbound email.
type Kind string

const (
	KindVerifyEmail   Kind = "verify_email"
	KindAccountLocked Kind = "account_locked"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindVerifyEmail, KindAccountLocked:
		return true
	default:
		return false
	}
}

// Message is the transport-neutral email payload; it is also the body queued on Pub/Sub.
type Message struct {
	Kind    Kind              `json:"kind"`
	To      string            `json:"to"`
	Subject string            `json:"subject"`
	Vars    map[string]string `json:"vars,omitempty"`
}

// Validate ensures the message can be rendered and delivered.
func (m Message) Validate() error {
	if !m.Kind.IsValid() {
		return fmt.Errorf("unknown email kind %q", m.Kind)
	}
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("email recipient is required")
	}
	return nil
}

// Encode serializes the message for queueing.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeMessage parses and validates a queued message.
func DecodeMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("decode email message: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Body renders a plain-text fallback used when no provider template applies.
func (m Message) Body() string {
	name := m.Vars["name"]
	if name == "" {
		name = "there"
	}
	switch m.Kind {
	case KindVerifyEmail:
		return fmt.Sprintf("Hi %s,\n\nPlease verify your email address by visiting:\n%s\n", name, m.Vars["verification_url"])
	case KindAccountLocked:
		return fmt.Sprintf("Hi %s,\n\nYour account has been locked after too many failed login attempts. Contact an administrator to unlock it.\n", name)
	default:
		return ""
	}
}
