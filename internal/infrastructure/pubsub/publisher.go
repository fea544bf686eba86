// Package pubsub publica los eventos del outbox en Google Cloud Pub/Sub.
package pubsub

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/jhoicas/Ventas-api/internal/application/events"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/pkg/config"
)

var _ events.Publisher = (*Publisher)(nil)

// Publisher envía cada evento como un mensaje al tópico configurado.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPublisher usa CredentialsJSON si viene; si no, las credenciales por defecto del entorno.
func NewPublisher(ctx context.Context, cfg config.PubSubConfig) (*Publisher, error) {
	if cfg.ProjectID == "" || cfg.Topic == "" {
		return nil, errors.New("pubsub: PUBSUB_PROJECT_ID y PUBSUB_TOPIC son requeridos")
	}
	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client (project_id=%s): %w", cfg.ProjectID, err)
	}
	topic := client.Topic(cfg.Topic)
	// por empresa: los eventos de un tenant llegan en el orden del outbox
	topic.EnableMessageOrdering = true
	return &Publisher{client: client, topic: topic}, nil
}

// Publish implementa events.Publisher. Espera la confirmación del servidor.
func (p *Publisher) Publish(ctx context.Context, e *entity.OutboxEvent) (string, error) {
	msg := NewMessage(e)
	id, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		// un error deja pausada la clave de orden; se reanuda para el reintento
		p.topic.ResumePublish(msg.OrderingKey)
		return "", fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return id, nil
}

// Close vacía los mensajes pendientes y cierra el cliente.
func (p *Publisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

// NewMessage arma el mensaje: el payload tal cual y los metadatos como atributos.
func NewMessage(e *entity.OutboxEvent) *pubsub.Message {
	return &pubsub.Message{
		Data:        e.Payload,
		OrderingKey: e.CompanyID,
		Attributes: map[string]string{
			"event_id":     e.ID,
			"event_type":   e.Type,
			"company_id":   e.CompanyID,
			"aggregate_id": e.AggregateID,
		},
	}
}
