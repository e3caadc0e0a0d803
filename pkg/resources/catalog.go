// Package resources wires the remote caches backing the console's views.
// Each mutation goes straight to the upstream API and then invalidates the
// affected cache, so the next read reflects the server's state
// (invalidate-and-refetch, never patch-in-place).
package resources

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/covergrid/docqa-console/pkg/cache"
	"github.com/covergrid/docqa-console/pkg/upstream"
)

// Config tunes the catalog's caches.
type Config struct {
	// TTL is the freshness window for every cached resource.
	TTL time.Duration

	// PollInterval drives the system-health panels. Zero disables polling.
	PollInterval time.Duration

	// FetchRetries bounds retries of a failed cache fill.
	FetchRetries int

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Catalog holds the cached views for one console session.
type Catalog struct {
	client *upstream.Client

	Companies     *cache.Resource[[]upstream.Company]
	AdminUsers    *cache.Resource[[]upstream.User]
	QALogs        *cache.Resource[[]upstream.QALogEntry]
	Conversations *cache.Resource[[]upstream.Conversation]
	AgentsStatus  *cache.Resource[upstream.AgentsStatus]
	SystemStatus  *cache.Resource[upstream.SystemStatus]

	Documents   *cache.Keyed[[]upstream.Document]
	AgentStatus *cache.Keyed[upstream.AgentStatus]

	polling bool
}

// NewCatalog builds the cached views over client.
func NewCatalog(client *upstream.Client, cfg Config) *Catalog {
	rc := cache.Config{TTL: cfg.TTL, FetchRetries: cfg.FetchRetries, Logger: cfg.Logger}

	c := &Catalog{client: client}
	c.Companies = cache.New("companies", client.Companies, rc)
	c.AdminUsers = cache.New("admin_users", client.AdminUsers, rc)
	c.QALogs = cache.New("qa_logs", client.QALogs, rc)
	c.Conversations = cache.New("conversations", client.Conversations, rc)
	c.AgentsStatus = cache.New("agents_status", client.AgentsStatus, rc)
	c.SystemStatus = cache.New("system_status", client.SystemStatus, rc)

	c.Documents = cache.NewKeyed("documents", func(key string) cache.FetchFunc[[]upstream.Document] {
		id, _ := strconv.ParseInt(key, 10, 64)
		return func(ctx context.Context) ([]upstream.Document, error) {
			return client.Documents(ctx, id)
		}
	}, rc)
	c.AgentStatus = cache.NewKeyed("agent_status", func(key string) cache.FetchFunc[upstream.AgentStatus] {
		id, _ := strconv.ParseInt(key, 10, 64)
		return func(ctx context.Context) (upstream.AgentStatus, error) {
			return client.AgentStatus(ctx, id)
		}
	}, rc)

	if cfg.PollInterval > 0 {
		c.AgentsStatus.StartPolling(cfg.PollInterval)
		c.SystemStatus.StartPolling(cfg.PollInterval)
		c.polling = true
	}
	return c
}

// Close stops background polling.
func (c *Catalog) Close() {
	if c.polling {
		c.AgentsStatus.Close()
		c.SystemStatus.Close()
	}
}

func companyKey(id int64) string { return strconv.FormatInt(id, 10) }

// CreateCompany creates a company and invalidates the company list.
func (c *Catalog) CreateCompany(ctx context.Context, p upstream.CompanyParams) (upstream.Company, error) {
	created, err := c.client.CreateCompany(ctx, p)
	if err != nil {
		return upstream.Company{}, err
	}
	c.Companies.Invalidate()
	return created, nil
}

// UpdateCompany updates a company and invalidates the company list.
func (c *Catalog) UpdateCompany(ctx context.Context, id int64, p upstream.CompanyParams) (upstream.Company, error) {
	updated, err := c.client.UpdateCompany(ctx, id, p)
	if err != nil {
		return upstream.Company{}, err
	}
	c.Companies.Invalidate()
	return updated, nil
}

// DeleteCompany removes a company and invalidates everything scoped to it.
func (c *Catalog) DeleteCompany(ctx context.Context, id int64) error {
	if err := c.client.DeleteCompany(ctx, id); err != nil {
		return err
	}
	c.Companies.Invalidate()
	c.Documents.Invalidate(companyKey(id))
	c.AgentStatus.Invalidate(companyKey(id))
	c.AgentsStatus.Invalidate()
	return nil
}

// CreateUser creates a platform user and invalidates the user list.
func (c *Catalog) CreateUser(ctx context.Context, p upstream.UserParams) (upstream.User, error) {
	created, err := c.client.CreateUser(ctx, p)
	if err != nil {
		return upstream.User{}, err
	}
	c.AdminUsers.Invalidate()
	return created, nil
}

// DeleteUser removes a platform user and invalidates the user list.
func (c *Catalog) DeleteUser(ctx context.Context, id int64) error {
	if err := c.client.DeleteUser(ctx, id); err != nil {
		return err
	}
	c.AdminUsers.Invalidate()
	return nil
}

// UploadDocument uploads a PDF and invalidates the company's document list
// and agent status (the index is now behind).
func (c *Catalog) UploadDocument(ctx context.Context, companyID int64, filename string, content io.Reader) (upstream.Document, error) {
	doc, err := c.client.UploadDocument(ctx, companyID, filename, content)
	if err != nil {
		return upstream.Document{}, err
	}
	c.Documents.Invalidate(companyKey(companyID))
	c.AgentStatus.Invalidate(companyKey(companyID))
	return doc, nil
}

// DeleteDocument removes a PDF and invalidates the company's document list
// and agent status.
func (c *Catalog) DeleteDocument(ctx context.Context, companyID, documentID int64) error {
	if err := c.client.DeleteDocument(ctx, companyID, documentID); err != nil {
		return err
	}
	c.Documents.Invalidate(companyKey(companyID))
	c.AgentStatus.Invalidate(companyKey(companyID))
	return nil
}

// RebuildAgent triggers a reindex and invalidates the agent status views.
func (c *Catalog) RebuildAgent(ctx context.Context, companyID int64) (upstream.AgentStatus, error) {
	status, err := c.client.RebuildAgent(ctx, companyID)
	if err != nil {
		return upstream.AgentStatus{}, err
	}
	c.AgentStatus.Invalidate(companyKey(companyID))
	c.AgentsStatus.Invalidate()
	return status, nil
}

// Ask submits a question. Answers are never cached; the QA log view is
// invalidated so admins see the new entry on their next fetch.
func (c *Catalog) Ask(ctx context.Context, companyID int64, question, conversationID string) (upstream.Answer, error) {
	answer, err := c.client.Ask(ctx, companyID, question, conversationID)
	if err != nil {
		return upstream.Answer{}, err
	}
	c.QALogs.Invalidate()
	return answer, nil
}

// CreateConversation starts a conversation and invalidates the list.
func (c *Catalog) CreateConversation(ctx context.Context, title string, companyID int64) (upstream.Conversation, error) {
	conv, err := c.client.CreateConversation(ctx, title, companyID)
	if err != nil {
		return upstream.Conversation{}, err
	}
	c.Conversations.Invalidate()
	return conv, nil
}

// DeleteConversation removes a conversation and invalidates the list.
func (c *Catalog) DeleteConversation(ctx context.Context, id string) error {
	if err := c.client.DeleteConversation(ctx, id); err != nil {
		return err
	}
	c.Conversations.Invalidate()
	return nil
}

// SendMessage posts a message. The conversation list is invalidated so the
// thread's updated timestamp and preview refresh on the next read.
func (c *Catalog) SendMessage(ctx context.Context, conversationID, content string) (upstream.Message, error) {
	msg, err := c.client.SendMessage(ctx, conversationID, content)
	if err != nil {
		return upstream.Message{}, err
	}
	c.Conversations.Invalidate()
	return msg, nil
}

// Conversation fetches a single conversation thread. Threads are read
// uncached: the chat view always shows the server's version.
func (c *Catalog) Conversation(ctx context.Context, id string) (upstream.Conversation, error) {
	return c.client.Conversation(ctx, id)
}
