package notifyqueue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agrosathi/agrosathi/internal/domain/notification"
)

func TestImmediateQueue_RequiresHandler(t *testing.T) {
	q := NewImmediateQueue()
	err := q.Enqueue(context.Background(), notification.Message{To: "+14155550100", Body: "hi"})
	require.ErrorIs(t, err, errNoHandler)
}

func TestImmediateQueue_DeliversSynchronously(t *testing.T) {
	q := NewImmediateQueue()
	var got []notification.Message
	q.SetHandler(func(ctx context.Context, msg notification.Message) {
		got = append(got, msg)
	})

	msg := notification.Message{To: "+14155550100", Body: "hi", RequestID: "req-1"}
	require.NoError(t, q.Enqueue(context.Background(), msg))
	require.Equal(t, []notification.Message{msg}, got)
	require.NoError(t, q.Close(context.Background()))
}
