package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplatesRender(t *testing.T) {
	tm, err := NewDefaultTemplateManager()
	require.NoError(t, err)
	assert.Equal(t, []string{"new_rating", "reply_review"}, tm.TemplateNames())

	out, err := tm.Render("new_rating", TemplateData{
		"name":       "uBlock",
		"score":      4,
		"body":       "Works well",
		"rating_url": "https://addons.example/en-US/firefox/addon/ublock/reviews/7",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "your add-on, uBlock.")
	assert.Contains(t, out, "Rating: 4 out of 5 stars")
	assert.Contains(t, out, "/addon/ublock/reviews/7")

	_, err = tm.Render("missing", nil)
	assert.Error(t, err)
}

func TestRecordingProviderSendTemplate(t *testing.T) {
	tm := NewTemplateManager()
	require.NoError(t, tm.AddTemplate("hello", "Hi {{.name}}"))
	p := NewRecordingProvider(tm)

	require.NoError(t, p.SendTemplate([]string{"a@example.com", "b@example.com"}, "Greetings", "hello", TemplateData{"name": "Ann"}))
	sent := p.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, []string{"b@example.com"}, sent[1].To)
	assert.Equal(t, "Hi Ann", sent[0].Body)

	p.Reset()
	assert.Empty(t, p.Sent())
}

func TestSMTPProviderValidate(t *testing.T) {
	p := NewSMTPProvider(&SMTPConfig{Port: 25}, nil)
	assert.Error(t, p.Validate())
	assert.Error(t, p.SendTemplate([]string{"a@example.com"}, "s", "x", nil))

	p = NewSMTPProvider(&SMTPConfig{Host: "smtp.example.com", Port: 587, FromEmail: "nobody@example.com", FromName: "Add-ons"}, nil)
	assert.NoError(t, p.Validate())
	m := p.buildMessage(&Email{To: []string{"a@example.com"}, Subject: "Hi", Body: "text"})
	assert.Equal(t, []string{`"Add-ons" <nobody@example.com>`}, m.GetHeader("From"))
}
