package twilio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

func TestSender_SendPrefixesChannel(t *testing.T) {
	api := &stubMessageAPI{sid: "SM42"}
	sender := newSender(api, "+14155238886")

	sid, err := sender.Send(context.Background(), "+919876543210", "Leaf Blight detected")
	require.NoError(t, err)
	require.Equal(t, "SM42", sid)

	require.NotNil(t, api.params)
	require.Equal(t, "whatsapp:+14155238886", *api.params.From)
	require.Equal(t, "whatsapp:+919876543210", *api.params.To)
	require.Equal(t, "Leaf Blight detected", *api.params.Body)
}

func TestSender_SendKeepsExistingChannelPrefix(t *testing.T) {
	api := &stubMessageAPI{sid: "SM1"}
	sender := newSender(api, "whatsapp:+14155238886")

	_, err := sender.Send(context.Background(), "whatsapp:+14155550100", "hi")
	require.NoError(t, err)
	require.Equal(t, "whatsapp:+14155238886", *api.params.From)
	require.Equal(t, "whatsapp:+14155550100", *api.params.To)
}

func TestSender_SendWrapsProviderError(t *testing.T) {
	sender := newSender(&stubMessageAPI{err: errors.New("21211 invalid to")}, "+14155238886")

	_, err := sender.Send(context.Background(), "+919876543210", "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "21211")
}

func TestSender_SendHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	sender := newSender(&stubMessageAPI{block: release}, "+14155238886")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := sender.Send(ctx, "+919876543210", "hi")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewSender_RequiresCredentials(t *testing.T) {
	_, err := NewSender("", "token", "+14155238886")
	require.Error(t, err)
	_, err = NewSender("AC123", "token", "")
	require.Error(t, err)
}

type stubMessageAPI struct {
	params *openapi.CreateMessageParams
	sid    string
	err    error
	block  chan struct{}
}

func (s *stubMessageAPI) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	if s.block != nil {
		<-s.block
		return nil, errors.New("released")
	}
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	sid := s.sid
	return &openapi.ApiV2010Message{Sid: &sid}, nil
}
