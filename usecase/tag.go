package usecase

import (
	"context"

	domainChatStorage "github.com/wadesk/wadesk/domains/chatstorage"
	"github.com/wadesk/wadesk/validations"
)

type TagService struct {
	repo domainChatStorage.IChatStorageRepository
}

func NewTagService(repo domainChatStorage.IChatStorageRepository) *TagService {
	return &TagService{repo: repo}
}

func (service *TagService) Create(ctx context.Context, tag *domainChatStorage.Tag) error {
	if err := validations.ValidateTag(ctx, tag); err != nil {
		return err
	}
	return service.repo.CreateTag(ctx, tag)
}

func (service *TagService) List(ctx context.Context) ([]domainChatStorage.Tag, error) {
	return service.repo.ListTags(ctx)
}

func (service *TagService) Delete(ctx context.Context, id uint) error {
	return service.repo.DeleteTag(ctx, id)
}
