package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sabjimart/sabji-backend/pkg/config"
	"github.com/sabjimart/sabji-backend/pkg/logger"
)

const checkTimeout = 10 * time.Second

var ErrNotInitialized = errors.New("pubsub client not initialized")

type resourceKind string

const (
	kindTopic        resourceKind = "topics"
	kindSubscription resourceKind = "subscriptions"
)

// Client wraps the Pub/Sub v2 SDK for the domain event topic and the
// analytics subscription.
type Client struct {
	sdk     *pubsub.Client
	project string
	topic   string
	sub     string
}

func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, errors.New("gcp project id is required")
	}
	c := &Client{
		project: project,
		topic:   strings.TrimSpace(cfg.DomainTopic),
		sub:     strings.TrimSpace(cfg.AnalyticsSubscription),
	}
	if c.topic == "" && c.sub == "" {
		return nil, errors.New("pubsub topic or subscription is required")
	}

	sdk, err := pubsub.NewClient(ctx, project, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	c.sdk = sdk

	if err := c.Ping(ctx); err != nil {
		_ = sdk.Close()
		return nil, err
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"topic":        c.topic,
		"subscription": c.sub,
	}), "pubsub client ready")
	return c, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	if raw := strings.TrimSpace(gcp.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

// Ping confirms the configured topic and subscription exist.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.sdk == nil {
		return ErrNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if c.topic != "" {
		_, err := c.sdk.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{
			Topic: c.resource(kindTopic, c.topic),
		})
		if err != nil {
			return missing(kindTopic, c.topic, err)
		}
	}
	if c.sub != "" {
		_, err := c.sdk.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{
			Subscription: c.resource(kindSubscription, c.sub),
		})
		if err != nil {
			return missing(kindSubscription, c.sub, err)
		}
	}
	return nil
}

func missing(kind resourceKind, name string, err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("pubsub %s %q does not exist", strings.TrimSuffix(string(kind), "s"), name)
	}
	return fmt.Errorf("looking up pubsub %s %q: %w", strings.TrimSuffix(string(kind), "s"), name, err)
}

// Publisher accepts a short topic id or a full resource name.
func (c *Client) Publisher(topic string) *pubsub.Publisher {
	if c == nil || c.sdk == nil {
		return nil
	}
	name := c.resource(kindTopic, topic)
	if name == "" {
		return nil
	}
	return c.sdk.Publisher(name)
}

func (c *Client) DomainPublisher() *pubsub.Publisher {
	if c == nil {
		return nil
	}
	return c.Publisher(c.topic)
}

func (c *Client) Subscription(sub string) *pubsub.Subscriber {
	if c == nil || c.sdk == nil {
		return nil
	}
	name := c.resource(kindSubscription, sub)
	if name == "" {
		return nil
	}
	return c.sdk.Subscriber(name)
}

func (c *Client) AnalyticsSubscription() *pubsub.Subscriber {
	if c == nil {
		return nil
	}
	return c.Subscription(c.sub)
}

func (c *Client) Close() error {
	if c == nil || c.sdk == nil {
		return nil
	}
	return c.sdk.Close()
}

func (c *Client) resource(kind resourceKind, name string) string {
	name = strings.TrimSpace(name)
	if name == "" || c == nil {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+string(kind)+"/") {
		return name
	}
	if c.project == "" {
		return ""
	}
	return "projects/" + c.project + "/" + string(kind) + "/" + name
}
