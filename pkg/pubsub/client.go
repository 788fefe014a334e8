package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/printforge/printforge-backend/pkg/config"
	"github.com/printforge/printforge-backend/pkg/logger"
)

// Client wraps the v2 Pub/Sub client with the project's topic and
// subscription names. Short names are expanded to full resource paths.
type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
}

// NewClient dials Pub/Sub and confirms the configured notification topic
// and subscription exist. PUBSUB_EMULATOR_HOST is honored by the SDK.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, errors.New("gcp project id is required")
	}

	var opts []option.ClientOption
	if creds := strings.TrimSpace(gcp.CredentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}
	inner, err := pubsub.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{client: inner, projectID: project, cfg: cfg}
	if err := c.Ping(ctx); err != nil {
		_ = inner.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"project_id":   project,
			"topic":        cfg.NotificationTopic,
			"subscription": cfg.NotificationSubscription,
		}), "pubsub client initialized")
	}
	return c, nil
}

// Ping checks that every configured resource is reachable and exists.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("pubsub client not initialized")
	}
	if topic := c.topicPath(c.cfg.NotificationTopic); topic != "" {
		_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topic})
		if err := missing("topic", topic, err); err != nil {
			return err
		}
	}
	if sub := c.subscriptionPath(c.cfg.NotificationSubscription); sub != "" {
		_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: sub})
		if err := missing("subscription", sub, err); err != nil {
			return err
		}
	}
	return nil
}

func missing(kind, path string, err error) error {
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%s %q does not exist", kind, path)
	}
	return fmt.Errorf("checking %s %q: %w", kind, path, err)
}

// Publisher returns nil for a blank topic or an unopened client.
func (c *Client) Publisher(topic string) *pubsub.Publisher {
	path := c.topicPath(topic)
	if path == "" || c.client == nil {
		return nil
	}
	return c.client.Publisher(path)
}

func (c *Client) Subscriber(subscription string) *pubsub.Subscriber {
	path := c.subscriptionPath(subscription)
	if path == "" || c.client == nil {
		return nil
	}
	return c.client.Subscriber(path)
}

func (c *Client) NotificationSubscription() *pubsub.Subscriber {
	if c == nil {
		return nil
	}
	return c.Subscriber(c.cfg.NotificationSubscription)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) topicPath(name string) string {
	return c.resourcePath("topics", name)
}

func (c *Client) subscriptionPath(name string) string {
	return c.resourcePath("subscriptions", name)
}

func (c *Client) resourcePath(collection, name string) string {
	name = strings.TrimSpace(name)
	if c == nil || name == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+collection+"/") {
		return name
	}
	if c.projectID == "" {
		return ""
	}
	return "projects/" + c.projectID + "/" + collection + "/" + name
}
