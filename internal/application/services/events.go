package services

import (
	"secure-share-api/internal/application/ports"
	"secure-share-api/internal/infrastructure/mq"
)

func publish(p ports.EventPublisher, e mq.Event) {
	if p != nil {
		p.Publish(e)
	}
}
