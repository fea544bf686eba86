package pubsub_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/pubsub"
	"github.com/jhoicas/Ventas-api/pkg/config"
)

func TestNewMessage_AtributosYClaveDeOrden(t *testing.T) {
	e := &entity.OutboxEvent{
		ID:          "evt-1",
		CompanyID:   "company-1",
		AggregateID: "inv-1",
		Type:        "invoice.created",
		Payload:     []byte(`{"invoice_id":"inv-1"}`),
	}

	msg := pubsub.NewMessage(e)

	assert.JSONEq(t, `{"invoice_id":"inv-1"}`, string(msg.Data))
	assert.Equal(t, "company-1", msg.OrderingKey)
	assert.Equal(t, map[string]string{
		"event_id":     "evt-1",
		"event_type":   "invoice.created",
		"company_id":   "company-1",
		"aggregate_id": "inv-1",
	}, msg.Attributes)
}

func TestNewPublisher_RequiereProyectoYTopico(t *testing.T) {
	_, err := pubsub.NewPublisher(context.Background(), config.PubSubConfig{ProjectID: "demo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PUBSUB_TOPIC")
}
