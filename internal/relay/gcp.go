package relay

import (
	"context"
	"errors"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

type topicSource interface {
	Publisher(name string) *gcppubsub.Publisher
}

// GCPTopics adapts a Pub/Sub client to Topics.
func GCPTopics(client topicSource) Topics {
	return func(topic string) Publisher {
		if client == nil || topic == "" {
			return nil
		}
		p := client.Publisher(topic)
		if p == nil {
			return nil
		}
		return gcpPublisher{p}
	}
}

type gcpPublisher struct {
	p *gcppubsub.Publisher
}

func (g gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) PublishResult {
	return gcpResult{g.p.Publish(ctx, msg)}
}

func (g gcpPublisher) Stop() { g.p.Stop() }

type gcpResult struct {
	r *gcppubsub.PublishResult
}

func (g gcpResult) Get(ctx context.Context) (string, error) {
	if g.r == nil {
		return "", errors.New("publish result is nil")
	}
	return g.r.Get(ctx)
}
