package twilio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	twiliosdk "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/agrosathi/agrosathi/internal/domain/notification"
)

const channelPrefix = "whatsapp:"

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// Sender delivers WhatsApp messages through the Twilio messages API.
type Sender struct {
	api  messageCreator
	from string
}

// NewSender builds a sender for the given account and WhatsApp-enabled number.
func NewSender(accountSID, authToken, from string) (*Sender, error) {
	if strings.TrimSpace(accountSID) == "" || strings.TrimSpace(authToken) == "" {
		return nil, errors.New("twilio credentials are required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, errors.New("twilio sender number is required")
	}
	client := twiliosdk.NewRestClientWithParams(twiliosdk.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newSender(client.Api, from), nil
}

func newSender(api messageCreator, from string) *Sender {
	return &Sender{api: api, from: withChannel(from)}
}

// Send posts body to the E.164 number to. The SDK call is not cancellable, so
// ctx only bounds how long the caller waits for it.
func (s *Sender) Send(ctx context.Context, to, body string) (string, error) {
	params := &openapi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo(withChannel(to))
	params.SetBody(body)

	type result struct {
		sid string
		err error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := s.api.CreateMessage(params)
		if err != nil {
			done <- result{err: fmt.Errorf("twilio create message: %w", err)}
			return
		}
		var sid string
		if resp != nil && resp.Sid != nil {
			sid = *resp.Sid
		}
		done <- result{sid: sid}
	}()

	select {
	case r := <-done:
		return r.sid, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func withChannel(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, channelPrefix) {
		return number
	}
	return channelPrefix + number
}

var _ notification.Sender = (*Sender)(nil)
