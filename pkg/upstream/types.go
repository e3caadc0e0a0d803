package upstream

import "time"

// Role is a platform user role.
type Role string

// Platform roles.
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a role the platform defines.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// TokenPair is the credential pair returned by POST /auth/login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}

// User is the profile returned by GET /users/me and listed under /admin/users.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CompanyID int64     `json:"company_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// UserParams creates a platform user.
type UserParams struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      Role   `json:"role"`
	CompanyID int64  `json:"company_id,omitempty"`
}

// Company is a tenant on the platform.
type Company struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	DocumentCount int       `json:"document_count,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
}

// CompanyParams creates or updates a company.
type CompanyParams struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Document is an uploaded PDF owned by a company.
type Document struct {
	ID         int64     `json:"id"`
	CompanyID  int64     `json:"company_id"`
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes,omitempty"`
	Status     string    `json:"status,omitempty"`
	UploadedAt time.Time `json:"uploaded_at,omitzero"`
}

// Answer is the response to POST /companies/{id}/ask.
type Answer struct {
	Answer         string   `json:"answer"`
	Sources        []Source `json:"sources,omitempty"`
	ConversationID string   `json:"conversation_id,omitempty"`
}

// Source cites a document passage backing an answer.
type Source struct {
	Document string `json:"document"`
	Page     int    `json:"page,omitempty"`
	Snippet  string `json:"snippet,omitempty"`
}

// Conversation is a chat thread under /chat/conversations.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CompanyID int64     `json:"company_id,omitempty"`
	Messages  []Message `json:"messages,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Message is one turn of a conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Sources   []Source  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// AgentStatus describes a company's answering agent and its vector store.
type AgentStatus struct {
	CompanyID   int64             `json:"company_id"`
	State       string            `json:"state"` // "ready", "indexing", "error"
	Detail      string            `json:"detail,omitempty"`
	VectorStore VectorStoreStatus `json:"vector_store"`
}

// VectorStoreStatus summarizes a company's document index.
type VectorStoreStatus struct {
	Ready         bool       `json:"ready"`
	DocumentCount int        `json:"document_count"`
	ChunkCount    int        `json:"chunk_count,omitempty"`
	LastIndexedAt *time.Time `json:"last_indexed_at,omitempty"`
}

// AgentsStatus is the fleet view returned by GET /admin/agents/status.
type AgentsStatus struct {
	Agents []AgentStatus `json:"agents"`
}

// ComponentStatus is one subsystem entry of the system status report.
type ComponentStatus struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// SystemStatus is returned by GET /admin/system/status.
type SystemStatus struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentStatus `json:"components,omitempty"`
}

// HealthStatus is returned by the unauthenticated GET /health.
type HealthStatus struct {
	Status string `json:"status"`
}

// QALogEntry is one question/answer record from GET /admin/qa-logs.
type QALogEntry struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Username  string    `json:"username,omitempty"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}
