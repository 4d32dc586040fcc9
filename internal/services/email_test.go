package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventscheduler/internal/domain"
)

type fakeMailer struct {
	to, subject, html, text string
	err                     error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, html, text string) error {
	f.to, f.subject, f.html, f.text = to, subject, html, text
	return f.err
}

type fakeRenderer struct {
	lastTemplate string
	err          error
}

func (f *fakeRenderer) Render(name string, data any) (string, string, string, error) {
	f.lastTemplate = name
	if f.err != nil {
		return "", "", "", f.err
	}
	d := data.(*domain.InvitationEmailData)
	return "Join " + d.InviterEmail, "<a>" + d.Link + "</a>", d.Link, nil
}

func TestEmailService_SendInvitation(t *testing.T) {
	mailer := &fakeMailer{}
	renderer := &fakeRenderer{}
	svc := NewEmailService(mailer, renderer)

	err := svc.SendInvitation(context.Background(), &domain.InvitationEmailData{Email: "a@b.com", InviterEmail: "host@x.com", Link: "https://l"})
	require.NoError(t, err)
	assert.Equal(t, "invitation", renderer.lastTemplate)
	assert.Equal(t, "a@b.com", mailer.to)
	assert.Equal(t, "Join host@x.com", mailer.subject)
	assert.Equal(t, "https://l", mailer.text)
}

func TestEmailService_SendInvitation_Errors(t *testing.T) {
	svc := NewEmailService(&fakeMailer{}, &fakeRenderer{})
	assert.Error(t, svc.SendInvitation(context.Background(), nil))

	svc = NewEmailService(&fakeMailer{}, &fakeRenderer{err: errors.New("missing template")})
	assert.ErrorContains(t, svc.SendInvitation(context.Background(), &domain.InvitationEmailData{}), "render")

	svc = NewEmailService(&fakeMailer{err: errors.New("throttled")}, &fakeRenderer{})
	assert.ErrorContains(t, svc.SendInvitation(context.Background(), &domain.InvitationEmailData{}), "throttled")
}
