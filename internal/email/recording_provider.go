package email

import (
	"sync"
)

// RecordingProvider renders templates but keeps messages in memory instead of
// sending them. Used when SMTP is disabled and in tests.
type RecordingProvider struct {
	renderer TemplateRenderer

	mu   sync.Mutex
	sent []Email
}

func NewRecordingProvider(renderer TemplateRenderer) *RecordingProvider {
	return &RecordingProvider{renderer: renderer}
}

func (p *RecordingProvider) Send(email *Email) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, *email)
	return nil
}

func (p *RecordingProvider) SendTemplate(to []string, subject string, templateName string, data TemplateData) error {
	body := ""
	if p.renderer != nil {
		var err error
		if body, err = p.renderer.Render(templateName, data); err != nil {
			return err
		}
	}
	for _, recipient := range to {
		if err := p.Send(&Email{To: []string{recipient}, Subject: subject, Body: body}); err != nil {
			return err
		}
	}
	return nil
}

func (p *RecordingProvider) Validate() error { return nil }
func (p *RecordingProvider) Close() error    { return nil }

// Sent returns a copy of the recorded messages.
func (p *RecordingProvider) Sent() []Email {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Email, len(p.sent))
	copy(out, p.sent)
	return out
}

func (p *RecordingProvider) Reset() {
	p.mu.Lock()
	p.sent = nil
	p.mu.Unlock()
}
