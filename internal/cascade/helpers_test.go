package cascade

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/internal/notifications"
	"github.com/printforge/printforge-backend/internal/users"
	"github.com/printforge/printforge-backend/pkg/db"
	"github.com/printforge/printforge-backend/pkg/db/dbtest"
	"github.com/printforge/printforge-backend/pkg/logger"
	"github.com/printforge/printforge-backend/pkg/metrics"
)

type outbox struct {
	mu       sync.Mutex
	messages []notifications.Message
	fail     bool
}

func (o *outbox) Send(_ context.Context, msg notifications.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail {
		return errors.New("mail relay unavailable")
	}
	o.messages = append(o.messages, msg)
	return nil
}

func (o *outbox) templates() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.messages))
	for _, m := range o.messages {
		out = append(out, m.Template)
	}
	return out
}

type fixture struct {
	conn     *gorm.DB
	client   *db.Client
	repo     *Repository
	svc      Service
	resolver *Resolver
	applier  *Applier
	outbox   *outbox
	registry *prometheus.Registry
}

func newFixture(t *testing.T, legacyFallback bool) *fixture {
	t.Helper()
	client, conn := dbtest.OpenClient(t)
	logg := logger.New(logger.Options{ServiceName: "cascade-test", Output: &bytes.Buffer{}})
	repo := NewRepository(conn)
	box := &outbox{}
	reg := prometheus.NewRegistry()

	notifier, err := NewVendorNotifier(users.NewRepository(conn), repo, box)
	require.NoError(t, err)

	params := ServiceParams{
		Repo:              repo,
		Tx:                client,
		Notifier:          notifier,
		Metrics:           metrics.NewCascadeMetrics(reg),
		Logger:            logg,
		LegacyURLFallback: legacyFallback,
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	impl := svc.(*service)

	return &fixture{
		conn:     conn,
		client:   client,
		repo:     repo,
		svc:      svc,
		resolver: impl.resolver,
		applier:  impl.applier,
		outbox:   box,
		registry: reg,
	}
}
