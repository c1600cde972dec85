// Package publish pushes bill estimates to an MQTT broker so home-automation
// dashboards can track the projected bill as the cycle progresses.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/billcast/billcast/pkg/log"
	"github.com/billcast/billcast/pkg/types"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/levenlabs/go-lflag"
)

const publishTimeout = 10 * time.Second

// Payload is the retained message published per estimate. Amounts are rounded
// to cents here since the consumer is a dashboard, not the composer.
type Payload struct {
	CycleStart        string  `json:"cycleStart"`
	CycleEnd          string  `json:"cycleEnd"`
	AsOf              string  `json:"asOf"`
	UsageTotalCcf     int64   `json:"usageTotalCcf"`
	ProjectedMeterLow int64   `json:"projectedMeterLow"`
	WNAFactorPerMcf   float64 `json:"wnaFactorPerMcf"`
	WNAAmount         float64 `json:"wnaAmount"`
	Total             float64 `json:"total"`
	AssumedDays       int     `json:"assumedDays"`
	GeneratedAt       string  `json:"generatedAt"`
}

// NewPayload flattens a BillEstimate into the published shape.
func NewPayload(est types.BillEstimate) Payload {
	const day = "2006-01-02"
	return Payload{
		CycleStart:        est.Cycle.Start.Format(day),
		CycleEnd:          est.Cycle.End.Format(day),
		AsOf:              est.Cycle.AsOf.Format(day),
		UsageTotalCcf:     est.UsageTotalCcf,
		ProjectedMeterLow: est.ProjectedMeterLow,
		WNAFactorPerMcf:   est.WNAFactorPerMcf,
		WNAAmount:         types.RoundCents(est.WNAAmount),
		Total:             types.RoundCents(est.Total),
		AssumedDays:       est.Provenance.Assumed,
		GeneratedAt:       est.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

// Publisher sends estimates to an MQTT broker. A Publisher with no broker
// configured is valid and publishes nothing.
type Publisher struct {
	client mqtt.Client
	topic  string
}

// Configured registers the MQTT flags and returns a Publisher that connects
// once flags are parsed. With no broker flag the Publisher is a no-op.
func Configured() *Publisher {
	p := &Publisher{}
	broker := lflag.String("mqtt-broker", "", "MQTT broker address (host:port), empty disables publishing")
	topic := lflag.String("mqtt-topic", "billcast/estimate", "MQTT topic for estimate payloads")
	clientID := lflag.String("mqtt-client-id", "billcast", "MQTT client ID")
	username := lflag.String("mqtt-username", "", "MQTT username")
	password := lflag.String("mqtt-password", "", "MQTT password")

	lflag.Do(func() {
		p.topic = *topic
		if *broker == "" {
			return
		}
		opts := mqtt.NewClientOptions()
		opts.AddBroker(fmt.Sprintf("tcp://%s", *broker))
		opts.SetClientID(*clientID)
		opts.SetAutoReconnect(true)
		opts.SetConnectRetry(true)
		opts.SetConnectTimeout(10 * time.Second)
		if *username != "" {
			opts.SetUsername(*username)
		}
		if *password != "" {
			opts.SetPassword(*password)
		}
		p.client = mqtt.NewClient(opts)
		if token := p.client.Connect(); token.Wait() && token.Error() != nil {
			panic(fmt.Sprintf("connecting to MQTT broker: %v", token.Error()))
		}
	})

	return p
}

// Publish sends the estimate as a retained message so a dashboard reconnect
// picks up the latest projection.
func (p *Publisher) Publish(ctx context.Context, est types.BillEstimate) error {
	if p.client == nil {
		return nil
	}

	body, err := json.Marshal(NewPayload(est))
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	token := p.client.Publish(p.topic, 1, true, body)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}

	log.Ctx(ctx).InfoContext(ctx, "published estimate",
		slog.String("topic", p.topic),
		slog.Float64("total", types.RoundCents(est.Total)))
	return nil
}

// Close disconnects from the MQTT broker.
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
