package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MarcGrol/picoteo/lib/myerrors"
	"github.com/MarcGrol/picoteo/lib/myhttpclient"
	"github.com/MarcGrol/picoteo/lib/mylog"
)

const whatsappAPIBaseURL = "https://graph.facebook.com/v17.0"

//go:generate mockgen -source=dispatcher.go -package receipt -destination dispatcher_mock.go Dispatcher
type Dispatcher interface {
	Dispatch(c context.Context, destinationPhone string, text string) error
}

// NewDispatcher sends through the WhatsApp Cloud API when credentials are configured.
// Without credentials messages are only logged.
func NewDispatcher(accessToken string, phoneNumberID string) Dispatcher {
	logger := mylog.New("receipt")
	if accessToken == "" || phoneNumberID == "" {
		return &loggingDispatcher{logger: logger}
	}
	return newWhatsappDispatcher(myhttpclient.New(), whatsappAPIBaseURL, accessToken, phoneNumberID, logger)
}

type loggingDispatcher struct {
	logger mylog.Logger
}

func (d *loggingDispatcher) Dispatch(c context.Context, destinationPhone string, text string) error {
	d.logger.Log(c, destinationPhone, mylog.SeverityInfo, "Receipt for %s (not sent):\n%s", destinationPhone, text)
	return nil
}

type whatsappDispatcher struct {
	sender        myhttpclient.HTTPSender
	baseURL       string
	accessToken   string
	phoneNumberID string
	logger        mylog.Logger
}

func newWhatsappDispatcher(sender myhttpclient.HTTPSender, baseURL string, accessToken string, phoneNumberID string, logger mylog.Logger) *whatsappDispatcher {
	return &whatsappDispatcher{
		sender:        sender,
		baseURL:       baseURL,
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		logger:        logger,
	}
}

type whatsappText struct {
	Body string `json:"body"`
}

type whatsappMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsappText `json:"text"`
}

func (d *whatsappDispatcher) Dispatch(c context.Context, destinationPhone string, text string) error {
	body, err := json.Marshal(whatsappMessage{
		MessagingProduct: "whatsapp",
		To:               digitsOnly(destinationPhone),
		Type:             "text",
		Text:             whatsappText{Body: text},
	})
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error marshalling message: %s", err))
	}

	status, resp, err := d.sender.Send(c, http.MethodPost, fmt.Sprintf("%s/%s/messages", d.baseURL, d.phoneNumberID),
		map[string]string{"Authorization": "Bearer " + d.accessToken}, body)
	if err != nil {
		return myerrors.NewUnavailableError(fmt.Errorf("error sending whatsapp message: %s", err))
	}
	if status >= 300 {
		return myerrors.NewUnavailableError(fmt.Errorf("whatsapp rejected message with status %d: %s", status, string(resp)))
	}

	d.logger.Log(c, destinationPhone, mylog.SeverityInfo, "Sent receipt to %s", destinationPhone)

	return nil
}
