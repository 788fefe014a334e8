package redis

import "strings"

const (
	namespace = "pf"
	sep       = ":"
)

// Key joins non-blank parts under the service namespace, e.g.
// Key("lock", "cron") == "pf:lock:cron".
func Key(parts ...string) string {
	var b strings.Builder
	b.WriteString(namespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteString(sep)
			b.WriteString(part)
		}
	}
	return b.String()
}

// IdempotencyKey namespaces a replay-protection key.
func (c *Client) IdempotencyKey(scope, id string) string {
	return Key("idempotency", scope, id)
}

// LockKey namespaces a lock name. Already namespaced names pass through.
func (c *Client) LockKey(name string) string {
	if strings.HasPrefix(name, namespace+sep) {
		return name
	}
	return Key("lock", name)
}
