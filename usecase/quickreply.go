package usecase

import (
	"context"

	domainChatStorage "github.com/wadesk/wadesk/domains/chatstorage"
	"github.com/wadesk/wadesk/validations"
)

type QuickReplyService struct {
	repo domainChatStorage.IChatStorageRepository
}

func NewQuickReplyService(repo domainChatStorage.IChatStorageRepository) *QuickReplyService {
	return &QuickReplyService{repo: repo}
}

func (service *QuickReplyService) Create(ctx context.Context, qr *domainChatStorage.QuickReply) error {
	if err := validations.ValidateQuickReply(ctx, qr); err != nil {
		return err
	}
	return service.repo.CreateQuickReply(ctx, qr)
}

func (service *QuickReplyService) List(ctx context.Context) ([]domainChatStorage.QuickReply, error) {
	return service.repo.ListQuickReplies(ctx)
}

func (service *QuickReplyService) Update(ctx context.Context, qr *domainChatStorage.QuickReply) error {
	if err := validations.ValidateQuickReply(ctx, qr); err != nil {
		return err
	}
	return service.repo.UpdateQuickReply(ctx, qr)
}

func (service *QuickReplyService) Delete(ctx context.Context, id uint) error {
	return service.repo.DeleteQuickReply(ctx, id)
}
