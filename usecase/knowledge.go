package usecase

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	domainChatStorage "github.com/wadesk/wadesk/domains/chatstorage"
	pkgError "github.com/wadesk/wadesk/pkg/error"
	"github.com/wadesk/wadesk/validations"
)

type KnowledgeService struct {
	repo domainChatStorage.IChatStorageRepository
}

func NewKnowledgeService(repo domainChatStorage.IChatStorageRepository) *KnowledgeService {
	return &KnowledgeService{repo: repo}
}

func (service *KnowledgeService) Create(ctx context.Context, k *domainChatStorage.AIKnowledge, embedding []float64) error {
	if err := validations.ValidateKnowledge(ctx, k); err != nil {
		return err
	}
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	if embedding != nil {
		raw, err := json.Marshal(embedding)
		if err != nil {
			return err
		}
		k.Embedding = raw
	}
	return service.repo.CreateKnowledge(ctx, k)
}

func (service *KnowledgeService) Get(ctx context.Context, id string) (*domainChatStorage.AIKnowledge, error) {
	k, err := service.repo.GetKnowledge(ctx, id)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, pkgError.NotFoundError("knowledge resource not found: " + id)
	}
	return k, nil
}

func (service *KnowledgeService) List(ctx context.Context) ([]domainChatStorage.AIKnowledge, error) {
	return service.repo.ListKnowledge(ctx)
}

// Update rewrites the resource metadata. A nil or empty embedding leaves
// the stored vector untouched.
func (service *KnowledgeService) Update(ctx context.Context, k *domainChatStorage.AIKnowledge, embedding []float64) error {
	if err := validations.ValidateKnowledge(ctx, k); err != nil {
		return err
	}
	if len(embedding) > 0 {
		raw, err := json.Marshal(embedding)
		if err != nil {
			return err
		}
		k.Embedding = raw
	}
	return service.repo.UpdateKnowledge(ctx, k)
}

func (service *KnowledgeService) Delete(ctx context.Context, id string) error {
	return service.repo.DeleteKnowledge(ctx, id)
}
