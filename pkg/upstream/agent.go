package upstream

import (
	"context"
	"fmt"
)

// askRequest is the wire shape of POST /companies/{id}/ask.
type askRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Ask submits a question against a company's documents.
func (c *Client) Ask(ctx context.Context, companyID int64, question, conversationID string) (Answer, error) {
	var out Answer
	path := fmt.Sprintf("/companies/%d/ask", companyID)
	if err := c.doJSON(ctx, "ask", "POST", path, nil, askRequest{Question: question, ConversationID: conversationID}, &out); err != nil {
		return Answer{}, err
	}
	return out, nil
}

// AgentStatus reports a company's agent and vector-store state.
func (c *Client) AgentStatus(ctx context.Context, companyID int64) (AgentStatus, error) {
	var out AgentStatus
	path := fmt.Sprintf("/companies/%d/agent/status", companyID)
	if err := c.doJSON(ctx, "agent.status", "GET", path, nil, nil, &out); err != nil {
		return AgentStatus{}, err
	}
	return out, nil
}

// RebuildAgent triggers a reindex of a company's documents.
func (c *Client) RebuildAgent(ctx context.Context, companyID int64) (AgentStatus, error) {
	var out AgentStatus
	path := fmt.Sprintf("/companies/%d/agent/rebuild", companyID)
	if err := c.doJSON(ctx, "agent.rebuild", "POST", path, nil, nil, &out); err != nil {
		return AgentStatus{}, err
	}
	return out, nil
}
