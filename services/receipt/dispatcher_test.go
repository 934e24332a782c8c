package receipt

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/picoteo/lib/myerrors"
	"github.com/MarcGrol/picoteo/lib/myhttpclient"
	"github.com/MarcGrol/picoteo/lib/mylog"
)

func TestDispatcher(t *testing.T) {
	c := context.TODO()

	t.Run("Without credentials messages are logged only", func(t *testing.T) {
		err := NewDispatcher("", "").Dispatch(c, "+34600000002", "hello")
		assert.NoError(t, err)
	})

	t.Run("Send via whatsapp", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sender := myhttpclient.NewMockHTTPSender(ctrl)
		sender.EXPECT().Send(gomock.Any(), http.MethodPost, "https://example.com/123/messages",
			map[string]string{"Authorization": "Bearer secret"},
			[]byte(`{"messaging_product":"whatsapp","to":"34600000002","type":"text","text":{"body":"hello"}}`)).
			Return(200, []byte(`{}`), nil)
		sut := newWhatsappDispatcher(sender, "https://example.com", "secret", "123", mylog.New("test"))

		// when
		err := sut.Dispatch(c, "+34 600 000 002", "hello")

		// then
		assert.NoError(t, err)
	})

	t.Run("Rejected message", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sender := myhttpclient.NewMockHTTPSender(ctrl)
		sender.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(401, []byte(`{"error":"token"}`), nil)
		sut := newWhatsappDispatcher(sender, "https://example.com", "secret", "123", mylog.New("test"))

		// when
		err := sut.Dispatch(c, "+34600000002", "hello")

		// then
		assert.Error(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, myerrors.GetHTTPStatus(err))
	})

	t.Run("Unreachable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sender := myhttpclient.NewMockHTTPSender(ctrl)
		sender.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil, fmt.Errorf("timeout"))
		sut := newWhatsappDispatcher(sender, "https://example.com", "secret", "123", mylog.New("test"))

		// when
		err := sut.Dispatch(c, "+34600000002", "hello")

		// then
		assert.Error(t, err)
	})
}
