package worker

import (
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/trukapp/truka/internal/handler"
	"github.com/trukapp/truka/internal/stream"
)

// OrderAlertWorker consumes order status events and delivers an email
// alert to the shipper. The in-app notification row is written in the
// same transaction as the status change, so the worker only handles
// the outbound side.
func (wk *Worker) OrderAlertWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: orderAlertGroupID,
		Topic:   handler.OrderStatusChangedTopic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}

	for {
		select {
		case <-wk.Ctx.Done():
			consumer.Close()
			return
		default:
			event := consumer.Poll(100) // Poll every 100ms
			switch e := event.(type) {
			case *kafka.Message:
				log.Printf("Order status message received on %s: %s\n", e.TopicPartition, string(e.Value))

				var statusEvent handler.OrderStatusEvent
				if err := json.Unmarshal(e.Value, &statusEvent); err != nil {
					log.Printf("Error decoding order status event: %v", err)
					continue
				}

				wk.alertShipper(&statusEvent)
			case kafka.Error:
				log.Printf("Error: %v\n", e)
			default:
				// Handle other events if needed
			}
		}
	}
}

func (wk *Worker) alertShipper(event *handler.OrderStatusEvent) {
	shipper, found, err := wk.DB.User().GetOne(event.ShipperID)
	if err != nil {
		log.Printf("Error fetching shipper for order alert: %v", err)
		return
	}

	if !found {
		log.Printf("Shipper %s not found for order %s, skipping alert", event.ShipperID, event.OrderID)
		return
	}

	emailData := wk.Helper.NewEmailData()
	emailData["Name"] = shipper.FullName()
	emailData["Status"] = event.Status
	emailData["Message"] = event.Message
	emailData["Pickup"] = event.Pickup
	emailData["Destination"] = event.Destination

	err = wk.Mailer.Send(shipper.Email, emailData, "order-status-alert.tmpl")
	if err != nil {
		log.Printf("Error sending order alert email: %v", err)
	}
}
