package conversation

import (
	"context"

	domainChatStorage "github.com/wadesk/wadesk/domains/chatstorage"
)

type IConversationUsecase interface {
	List(ctx context.Context, request ListRequest) (ListResponse, error)
	Get(ctx context.Context, phone string) (*domainChatStorage.Conversation, error)
	Create(ctx context.Context, request CreateRequest) (*domainChatStorage.Conversation, error)
	Messages(ctx context.Context, request MessagesRequest) (MessagesResponse, error)
	Reply(ctx context.Context, request ReplyRequest) (*domainChatStorage.Message, error)
	MarkRead(ctx context.Context, phone string) error
	ToggleAI(ctx context.Context, request ToggleAIRequest) (*domainChatStorage.Conversation, error)
	Archive(ctx context.Context, phone string) error
	AssignAgent(ctx context.Context, phone string, agentID *uint) error
	AssignTag(ctx context.Context, phone string, tagID uint) error
	RemoveTag(ctx context.Context, phone string, tagID uint) error
}

type ListRequest struct {
	Status string `query:"status"`
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
}

type ListResponse struct {
	Data       []domainChatStorage.Conversation `json:"data"`
	Pagination PaginationResponse               `json:"pagination"`
}

type CreateRequest struct {
	Phone string `json:"phone" form:"phone"`
	Name  string `json:"name" form:"name"`
}

type MessagesRequest struct {
	Phone  string
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

type MessagesResponse struct {
	Data       []domainChatStorage.Message `json:"data"`
	Pagination PaginationResponse          `json:"pagination"`
}

type ReplyRequest struct {
	Phone     string `json:"phone" form:"phone"`
	Text      string `json:"text" form:"text"`
	MediaType string `json:"media_type" form:"media_type"`
	MediaURL  string `json:"media_url" form:"media_url"`
	AgentName string `json:"-"`
}

type ToggleAIRequest struct {
	Phone   string `json:"phone"`
	Enabled bool   `json:"enabled"`
}

type PaginationResponse struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}
