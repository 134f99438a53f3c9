package mq

import (
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"secure-share-api/config"
)

// "Rely on metrics, not guesses."
const bufferSize = 128

// Routing keys. The topic exchange routes on the action name.
const (
	ActionFileUploaded  = "file.uploaded"
	ActionFileDeleted   = "file.deleted"
	ActionFilesExpired  = "files.expired"
	ActionShareCreated  = "share.created"
	ActionShareRevoked  = "share.revoked"
	ActionShareAccessed = "share.accessed"
)

var Actions = []string{
	ActionFileUploaded,
	ActionFileDeleted,
	ActionFilesExpired,
	ActionShareCreated,
	ActionShareRevoked,
	ActionShareAccessed,
}

type (
	InputCh  = chan Event
	RabbitMQ struct {
		cfg      config.MQ
		log      *zap.Logger
		conn     *amqp091.Connection
		pubCh    *amqp091.Channel
		in       InputCh
		mCounter *prometheus.CounterVec
	}
	// Event never carries key material or storage paths.
	Event struct {
		Id      uuid.UUID      `json:"event_id"`
		TS      time.Time      `json:"time_stamp"`
		Action  string         `json:"action"`
		ActorID string         `json:"actor_id,omitempty"`
		FileID  string         `json:"file_id,omitempty"`
		ShareID string         `json:"share_id,omitempty"`
		Payload map[string]any `json:"payload,omitempty"`
	}
)

func NewEvent(action, actorID string) Event {
	return Event{Id: uuid.New(), TS: time.Now().UTC(), Action: action, ActorID: actorID}
}

func New(cfg config.MQ, logger *zap.Logger, mCounter *prometheus.CounterVec) *RabbitMQ {
	return &RabbitMQ{
		cfg:      cfg,
		log:      logger,
		in:       make(chan Event, bufferSize),
		mCounter: mCounter,
	}
}

func (r *RabbitMQ) Connect(ctx context.Context, dsn string) error {
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	amqpCfg := amqp091.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Properties: amqp091.Table{
			"connection_name": "secureshareapi",
		},
		Dial: func(network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		},
	}

	var err error
	r.conn, err = amqp091.DialConfig(dsn, amqpCfg)
	if err != nil {
		return err
	}
	r.pubCh, err = r.conn.Channel()
	if err != nil {
		_ = r.conn.Close()
		return err
	}

	r.log.Info("rabbitmq connected successfully")

	return nil
}

func (r *RabbitMQ) Init() error {
	if err := r.pubCh.ExchangeDeclare(
		r.cfg.Exchange,
		r.cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = r.pubCh.Close()
		return err
	}
	q, err := r.pubCh.QueueDeclare(
		r.cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for _, rk := range Actions {
		if err = r.pubCh.QueueBind(q.Name, rk, r.cfg.Exchange, false, nil); err != nil {
			return err
		}
	}

	return nil
}

// Publish enqueues e without blocking. A full buffer drops the event; request
// latency never depends on the broker.
func (r *RabbitMQ) Publish(e Event) {
	select {
	case r.in <- e:
	default:
		r.log.Warn("mq buffer full, event dropped", zap.String("action", e.Action), zap.String("event_id", e.Id.String()))
		if r.mCounter != nil {
			r.mCounter.WithLabelValues("mq_event_dropped_total").Inc()
		}
	}
}

func (r *RabbitMQ) PublisherWorker(ctx context.Context) {
	r.log.Info("starting publisher worker")

	defer func() {
		r.log.Info("publisher worker gracefully stopped")
	}()

	for {
		select {
		case e := <-r.in:
			if err := r.publish(ctx, e); err != nil {
				// alert
				r.log.Error("mq publish error", zap.String("action", e.Action), zap.Error(err))
			}
		case <-ctx.Done():
			if r.pubCh != nil {
				_ = r.pubCh.Close()
			}
			return
		}
	}
}

func (r *RabbitMQ) publish(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}

	pub := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.Id.String(),
		Timestamp:    e.TS,
		Type:         e.Action,
		Body:         b,
	}

	return r.pubCh.PublishWithContext(
		ctx,
		r.cfg.Exchange,
		e.Action,
		false,
		false,
		pub,
	)
}

func (r *RabbitMQ) GetConn() *amqp091.Connection { return r.conn }
