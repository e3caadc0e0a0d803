package upstream

import "context"

// AgentsStatus reports the state of every company agent. Admin only.
func (c *Client) AgentsStatus(ctx context.Context) (AgentsStatus, error) {
	var out AgentsStatus
	if err := c.doJSON(ctx, "agents.status", "GET", "/admin/agents/status", nil, nil, &out); err != nil {
		return AgentsStatus{}, err
	}
	return out, nil
}

// SystemStatus reports per-component platform health. Admin only.
func (c *Client) SystemStatus(ctx context.Context) (SystemStatus, error) {
	var out SystemStatus
	if err := c.doJSON(ctx, "system.status", "GET", "/admin/system/status", nil, nil, &out); err != nil {
		return SystemStatus{}, err
	}
	return out, nil
}

// QALogs lists recorded question/answer pairs. Admin only.
func (c *Client) QALogs(ctx context.Context) ([]QALogEntry, error) {
	var out []QALogEntry
	if err := c.doJSON(ctx, "qalogs.list", "GET", "/admin/qa-logs", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health probes the unauthenticated platform health endpoint.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var out HealthStatus
	if err := c.doJSONNoAuth(ctx, "health", "GET", "/health", nil, &out); err != nil {
		return HealthStatus{}, err
	}
	return out, nil
}
