package upstream

import "context"

// conversationParams creates a conversation.
type conversationParams struct {
	Title     string `json:"title,omitempty"`
	CompanyID int64  `json:"company_id,omitempty"`
}

// messageParams posts a message to a conversation.
type messageParams struct {
	Content string `json:"content"`
}

// Conversations lists the caller's chat conversations.
func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var out []Conversation
	if err := c.doJSON(ctx, "chat.list", "GET", "/chat/conversations", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateConversation starts a new conversation.
func (c *Client) CreateConversation(ctx context.Context, title string, companyID int64) (Conversation, error) {
	var out Conversation
	p := conversationParams{Title: title, CompanyID: companyID}
	if err := c.doJSON(ctx, "chat.create", "POST", "/chat/conversations", nil, p, &out); err != nil {
		return Conversation{}, err
	}
	return out, nil
}

// Conversation fetches a conversation including its messages.
func (c *Client) Conversation(ctx context.Context, id string) (Conversation, error) {
	var out Conversation
	if err := c.doJSON(ctx, "chat.get", "GET", "/chat/conversations/"+id, nil, nil, &out); err != nil {
		return Conversation{}, err
	}
	return out, nil
}

// DeleteConversation removes a conversation.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.doJSON(ctx, "chat.delete", "DELETE", "/chat/conversations/"+id, nil, nil, nil)
}

// SendMessage posts a user message and returns the assistant's reply.
func (c *Client) SendMessage(ctx context.Context, conversationID, content string) (Message, error) {
	var out Message
	path := "/chat/conversations/" + conversationID + "/messages"
	if err := c.doJSON(ctx, "chat.send", "POST", path, nil, messageParams{Content: content}, &out); err != nil {
		return Message{}, err
	}
	return out, nil
}
