package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESMailer_Send(t *testing.T) {
	api := &fakeSES{}
	m := &sesMailer{client: api, source: formatSource("PanelEvent", "noreply@panelevent.app"), logger: zap.NewNop()}

	id, err := m.Send(context.Background(), "a@x.com", "Hello", "<p>hi</p>", "")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	assert.Equal(t, "PanelEvent <noreply@panelevent.app>", aws.ToString(api.input.Source))
	assert.Equal(t, []string{"a@x.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "<p>hi</p>", aws.ToString(api.input.Message.Body.Html.Data))
	assert.Nil(t, api.input.Message.Body.Text)
}

func TestSESMailer_SendError(t *testing.T) {
	m := &sesMailer{client: &fakeSES{err: errors.New("throttled")}, source: "x@y.z", logger: zap.NewNop()}
	_, err := m.Send(context.Background(), "a@x.com", "s", "", "t")
	assert.ErrorContains(t, err, "throttled")
}

func TestNew_FallsBackToNoop(t *testing.T) {
	m := New(Config{Provider: "carrier-pigeon"}, nil)
	_, ok := m.(*noopMailer)
	assert.True(t, ok)

	id, err := m.Send(context.Background(), "a@x.com", "s", "h", "t")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestRenderer_RegistrationConfirmation(t *testing.T) {
	data := struct {
		RecipientName string
		EventTitle    string
		EventStartsAt time.Time
		EventLocation string
		CheckinURL    string
	}{
		RecipientName: "Awa <script>",
		EventTitle:    "Forum Dakar",
		EventStartsAt: time.Date(2024, 9, 12, 9, 0, 0, 0, time.UTC),
		EventLocation: "CICAD",
		CheckinURL:    "https://panelevent.app/checkin/abc",
	}
	subject, html, text, err := NewRenderer().Render("registration_confirmation", data)
	require.NoError(t, err)

	assert.Equal(t, "Inscription confirmée : Forum Dakar", subject)
	assert.Contains(t, html, "Awa &lt;script&gt;")
	assert.Contains(t, html, "12/09/2024 09:00 UTC")
	assert.Contains(t, text, "Awa <script>")
	assert.Contains(t, text, "Lieu : CICAD")
	assert.Contains(t, text, "https://panelevent.app/checkin/abc")
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	_, _, _, err := NewRenderer().Render("nope", nil)
	assert.Error(t, err)
}
