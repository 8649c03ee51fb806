package mailchannels

// Address is an email address with an optional display name.
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Content is one body part of a message.
type Content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Personalization carries the recipient and optional delivery-time DKIM
// signing instructions. The DKIM fields are either all set or all empty;
// partial signing material is never sent.
type Personalization struct {
	To             []Address `json:"to"`
	DKIMDomain     string    `json:"dkim_domain,omitempty"`
	DKIMSelector   string    `json:"dkim_selector,omitempty"`
	DKIMPrivateKey string    `json:"dkim_private_key,omitempty"`
}

// Message is a provider transmission: one sender, one recipient, one
// subject and a single body part.
type Message struct {
	Personalizations []Personalization `json:"personalizations"`
	From             Address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []Content         `json:"content"`
}

// Redacted returns a copy of the message safe for audit persistence:
// the DKIM private key is stripped, everything else is preserved.
func (m *Message) Redacted() *Message {
	out := *m
	out.Personalizations = make([]Personalization, len(m.Personalizations))
	copy(out.Personalizations, m.Personalizations)
	for i := range out.Personalizations {
		out.Personalizations[i].DKIMPrivateKey = ""
	}
	return &out
}
