package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/waitlist-service/internal/domain"
	"github.com/ignite/waitlist-service/internal/validator"
)

// fakeSender records sends and returns a scripted result.
type fakeSender struct {
	calls     []*Message
	messageID string
	err       error
}

func (f *fakeSender) Send(ctx context.Context, m *Message) (string, error) {
	f.calls = append(f.calls, m)
	return f.messageID, f.err
}

func newTestDispatcher(s Sender) *Dispatcher {
	return NewDispatcher(validator.New(), s, "", time.Second)
}

func TestDispatchRejectedAddressSkipsTransport(t *testing.T) {
	sender := &fakeSender{messageID: "id-1"}
	d := newTestDispatcher(sender)

	out := d.Dispatch(context.Background(), "Ada", "ada@example.com", domain.UserTypeStudent)

	assert.False(t, out.Success)
	assert.Equal(t, domain.DeliveryFailed, out.Status)
	assert.Equal(t, validator.ReasonFakePattern, out.Error)
	assert.Nil(t, out.SentAt)
	assert.Empty(t, sender.calls, "transport must not be invoked for rejected addresses")
}

func TestDispatchSuccess(t *testing.T) {
	sender := &fakeSender{messageID: "msg-abc123"}
	d := newTestDispatcher(sender)

	out := d.Dispatch(context.Background(), "Bo", "Bo@RealDomain.IO", domain.UserTypeStartup)

	assert.True(t, out.Success)
	assert.Equal(t, domain.DeliverySent, out.Status)
	assert.Equal(t, "msg-abc123", out.MessageID)
	require.NotNil(t, out.SentAt)
	assert.WithinDuration(t, time.Now().UTC(), *out.SentAt, 5*time.Second)

	require.Len(t, sender.calls, 1)
	msg := sender.calls[0]
	assert.Equal(t, "bo@realdomain.io", msg.To)
	assert.Equal(t, DefaultSubject, msg.Subject)
	assert.Contains(t, msg.HTML, "Bo")
	assert.Contains(t, msg.HTML, "startup")
	assert.Contains(t, msg.Text, "Bo")
	assert.Contains(t, msg.Text, "startup")
}

func TestDispatchTransportFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("535 authentication failed")}
	d := newTestDispatcher(sender)

	out := d.Dispatch(context.Background(), "Bo", "bo@realdomain.io", domain.UserTypeStartup)

	assert.False(t, out.Success)
	assert.Equal(t, domain.DeliveryFailed, out.Status)
	assert.Contains(t, out.Error, "authentication failed")
	assert.Empty(t, out.MessageID)
	require.Len(t, sender.calls, 1, "exactly one attempt, no retries")
}

func TestDispatchSingleAttempt(t *testing.T) {
	sender := &fakeSender{err: errors.New("relay timeout")}
	d := newTestDispatcher(sender)

	d.Dispatch(context.Background(), "Bo", "bo@realdomain.io", domain.UserTypeStudent)
	d.Dispatch(context.Background(), "Bo", "bo@realdomain.io", domain.UserTypeStudent)

	assert.Len(t, sender.calls, 2, "one attempt per invocation")
}

func TestWelcomeTemplateRendersVerbatim(t *testing.T) {
	tpl := newTemplates()

	html, text, err := tpl.render("Grace Hopper", domain.UserTypeStudent)
	require.NoError(t, err)
	assert.Contains(t, html, "Grace Hopper")
	assert.Contains(t, html, "student")
	assert.Contains(t, html, "student early-access")
	assert.Contains(t, text, "Grace Hopper")

	html, _, err = tpl.render("Bo", domain.UserTypeStartup)
	require.NoError(t, err)
	assert.Contains(t, html, "founding-team early-access")
}
