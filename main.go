package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/picoteo/lib/mypublisher"
	"github.com/MarcGrol/picoteo/lib/mypubsub"
	"github.com/MarcGrol/picoteo/lib/myqueue"
	"github.com/MarcGrol/picoteo/lib/mystore"
	"github.com/MarcGrol/picoteo/lib/mytime"
	"github.com/MarcGrol/picoteo/lib/myuuid"
	"github.com/MarcGrol/picoteo/services/basket"
	"github.com/MarcGrol/picoteo/services/cardpayment"
	"github.com/MarcGrol/picoteo/services/catalog"
	"github.com/MarcGrol/picoteo/services/order"
	"github.com/MarcGrol/picoteo/services/receipt"
	"github.com/MarcGrol/picoteo/services/warmup"
)

type subscriber interface {
	Subscribe(c context.Context) error
}

func main() {
	c := context.Background()
	config := configFromEnvironment()

	router := mux.NewRouter()
	nower := mytime.RealNower{}
	uuider := myuuid.RealUUIDer{}

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	defer pubsubCleanup()

	queue, queueCleanup, err := myqueue.New(c)
	if err != nil {
		log.Fatalf("Error creating queue: %s", err)
	}
	defer queueCleanup()

	publisher, publisherCleanup, err := mypublisher.New(c, pubsub, queue, nower)
	if err != nil {
		log.Fatalf("Error creating publisher: %s", err)
	}
	defer publisherCleanup()
	publisher.RegisterEndpoints(c, router)

	catalogStores, catalogCleanup, err := catalog.NewStores(c)
	if err != nil {
		log.Fatalf("Error creating catalog stores: %s", err)
	}
	defer catalogCleanup()
	catalogService := catalog.NewWebService(catalogStores, nower, uuider, publisher)
	catalogService.RegisterEndpoints(c, router)

	basketStore, basketCleanup, err := mystore.New[basket.Basket](c)
	if err != nil {
		log.Fatalf("Error creating basket store: %s", err)
	}
	defer basketCleanup()
	basketService := basket.NewWebService(basketStore, catalogService.Resolver(), nower, publisher)
	basketService.RegisterEndpoints(c, router)

	orderStore, orderCleanup, err := mystore.New[order.Order](c)
	if err != nil {
		log.Fatalf("Error creating order store: %s", err)
	}
	defer orderCleanup()
	orderService := order.NewWebService(orderStore, basketService, catalogService.Resolver(),
		receipt.NewFormatter(config.CurrencySymbol),
		receipt.NewDispatcher(config.WhatsappToken, config.WhatsappPhoneNumberID),
		nower, uuider, publisher)
	orderService.RegisterEndpoints(c, router)

	paymentStore, paymentCleanup, err := mystore.New[cardpayment.Payment](c)
	if err != nil {
		log.Fatalf("Error creating payment store: %s", err)
	}
	defer paymentCleanup()
	paymentService := cardpayment.NewWebService(config.StripeCurrency, paymentStore, orderService, cardpayment.NewPayer(config.StripeAPIKey), nower, publisher)
	paymentService.RegisterEndpoints(c, router)

	warmup.NewService(catalogService.Resolver()).RegisterEndpoints(c, router)

	for _, s := range []subscriber{catalogService, basketService, orderService, paymentService} {
		err = s.Subscribe(c)
		if err != nil {
			log.Fatalf("Error subscribing: %s", err)
		}
	}

	startWebServerBlocking(config.Port, router)
}

func startWebServerBlocking(port string, router *mux.Router) {
	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
