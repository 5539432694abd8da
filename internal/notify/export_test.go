package notify

import "gopkg.in/gomail.v2"

// WithTransport swaps the SMTP dial for tests.
func (s *EmailSender) WithTransport(fn func(*gomail.Message) error) *EmailSender {
	s.send = fn
	return s
}
