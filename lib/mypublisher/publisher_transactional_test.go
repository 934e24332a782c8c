package mypublisher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/picoteo/lib/myevents"
	"github.com/MarcGrol/picoteo/lib/mypubsub"
	"github.com/MarcGrol/picoteo/lib/myqueue"
	"github.com/MarcGrol/picoteo/lib/mystore"
	"github.com/MarcGrol/picoteo/lib/mytime"
)

type somethingHappened struct {
	UID string
}

func (e somethingHappened) GetEventTypeName() string {
	return "test.happened"
}

func (e somethingHappened) GetAggregateName() string {
	return e.UID
}

func TestTransactionalPublisher(t *testing.T) {

	t.Run("Publish stores envelope and enqueues trigger", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, _, outbox, nower, queue, _, sut := setup(ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, task myqueue.Task) error {
			assert.Equal(t, "/pubsub/test/"+task.UID, task.WebhookURLPath)
			return nil
		})

		// when
		err := sut.Publish(ctx, "test", somethingHappened{UID: "123"})

		// then
		assert.NoError(t, err)
		envelopes, _ := outbox.List(ctx)
		assert.Len(t, envelopes, 1)
		assert.Equal(t, "test", envelopes[0].Topic)
		assert.Equal(t, "123", envelopes[0].AggregateUID)
		assert.Equal(t, "test.happened", envelopes[0].EventTypeName)
		assert.Equal(t, `{"UID":"123"}`, envelopes[0].EventPayload)
		assert.False(t, envelopes[0].Published)
	})

	t.Run("Same event is stored once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, _, outbox, nower, queue, _, sut := setup(ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime).Times(2)
		queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil).Times(2)

		// when
		_ = sut.Publish(ctx, "test", somethingHappened{UID: "123"})
		_ = sut.Publish(ctx, "test", somethingHappened{UID: "123"})

		// then
		envelopes, _ := outbox.List(ctx)
		assert.Len(t, envelopes, 1)
	})

	t.Run("Trigger publishes pending envelopes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, outbox, _, _, pubsub, _ := setup(ctrl)

		// given
		_ = outbox.Put(ctx, "1", myevents.EventEnvelope{UID: "1", Topic: "test", CreatedAt: mytime.ExampleTime})
		_ = outbox.Put(ctx, "2", myevents.EventEnvelope{UID: "2", Topic: "test", CreatedAt: mytime.ExampleTime, Published: true})
		pubsub.EXPECT().Publish(gomock.Any(), "test", gomock.Any()).Return(nil)

		// when
		request, err := http.NewRequest(http.MethodPut, "/pubsub/test/1", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		envelope, _, _ := outbox.Get(ctx, "1")
		assert.True(t, envelope.Published)
	})
}

func setup(ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[myevents.EventEnvelope], *mytime.MockNower, *myqueue.MockTaskQueuer, *mypubsub.MockPubSub, *transactionalPublisher) {
	c := context.TODO()
	outbox, _, _ := mystore.NewInMemoryStore[myevents.EventEnvelope](c)
	nower := mytime.NewMockNower(ctrl)
	queue := myqueue.NewMockTaskQueuer(ctrl)
	pubsub := mypubsub.NewMockPubSub(ctrl)

	sut := newTransactionalPublisher(outbox, pubsub, queue, nower)
	router := mux.NewRouter()
	sut.RegisterEndpoints(c, router)

	return c, router, outbox, nower, queue, pubsub, sut
}
