package chatstorage

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainChatStorage "github.com/wadesk/wadesk/domains/chatstorage"
	pkgError "github.com/wadesk/wadesk/pkg/error"
)

type StorageRepository struct {
	db *gorm.DB
}

func NewStorageRepository(db *gorm.DB) *StorageRepository {
	return &StorageRepository{db: db}
}

func (r *StorageRepository) InitializeSchema() error {
	return r.db.AutoMigrate(
		&domainChatStorage.Conversation{},
		&domainChatStorage.Message{},
		&domainChatStorage.Tag{},
		&domainChatStorage.QuickReply{},
		&domainChatStorage.AIKnowledge{},
	)
}

// --- Conversations ---

func (r *StorageRepository) GetConversation(ctx context.Context, phone string) (*domainChatStorage.Conversation, error) {
	var conv domainChatStorage.Conversation
	err := r.db.WithContext(ctx).Preload("Tags").First(&conv, "phone = ?", phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *StorageRepository) ListConversations(ctx context.Context, status string, limit, offset int) ([]domainChatStorage.Conversation, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Model(&domainChatStorage.Conversation{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var convs []domainChatStorage.Conversation
	err := query.Preload("Tags").
		Order("last_message_at DESC NULLS LAST").
		Limit(limit).Offset(offset).
		Find(&convs).Error
	return convs, total, err
}

// UpsertConversation inserts the conversation if absent; on conflict it
// updates the preview fields and keeps an already-stored display name, so
// events without a pushName never blank out what an agent sees. The insert
// goes through ON CONFLICT DO NOTHING, so two webhooks racing on the same
// phone both land on the update path instead of one of them erroring out.
func (r *StorageRepository) UpsertConversation(ctx context.Context, up domainChatStorage.ConversationUpsert) (*domainChatStorage.Conversation, bool, error) {
	conv := &domainChatStorage.Conversation{
		Phone:       up.Phone,
		Name:        up.Name,
		LastMessage: up.LastMessage,
		Status:      domainChatStorage.StatusActive,
		AIEnabled:   true,
		State:       domainChatStorage.StateAIActive,
	}
	if !up.Timestamp.IsZero() {
		ts := up.Timestamp
		conv.LastMessageAt = &ts
	}
	if up.AIEnabled != nil {
		conv.AIEnabled = *up.AIEnabled
		if !conv.AIEnabled {
			conv.State = domainChatStorage.StateAgentActive
		}
	}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		DoNothing: true,
	}).Create(conv)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return conv, true, nil
	}

	existing, err := r.GetConversation(ctx, up.Phone)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, gorm.ErrRecordNotFound
	}

	updates := map[string]any{}
	if up.LastMessage != "" {
		updates["last_message"] = up.LastMessage
	}
	if !up.Timestamp.IsZero() {
		updates["last_message_at"] = up.Timestamp
	}
	if strings.TrimSpace(existing.Name) == "" && up.Name != "" {
		updates["name"] = up.Name
	}
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(&domainChatStorage.Conversation{}).
			Where("phone = ?", up.Phone).Updates(updates).Error; err != nil {
			return nil, false, err
		}
	}

	refreshed, err := r.GetConversation(ctx, up.Phone)
	return refreshed, false, err
}

func (r *StorageRepository) UpdateConversationName(ctx context.Context, phone, name string) error {
	return r.db.WithContext(ctx).Model(&domainChatStorage.Conversation{}).
		Where("phone = ?", phone).Update("name", name).Error
}

func (r *StorageRepository) UpdateLastMessage(ctx context.Context, phone, preview string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domainChatStorage.Conversation{}).
		Where("phone = ?", phone).
		Updates(map[string]any{"last_message": preview, "last_message_at": at}).Error
}

func (r *StorageRepository) IncrementUnread(ctx context.Context, phone string) error {
	return r.db.WithContext(ctx).Model(&domainChatStorage.Conversation{}).
		Where("phone = ?", phone).
		UpdateColumn("unread_count", gorm.Expr("unread_count + 1")).Error
}

func (r *StorageRepository) MarkRead(ctx context.Context, phone string) error {
	return r.db.WithContext(ctx).Model(&domainChatStorage.Conversation{}).
		Where("phone = ?", phone).UpdateColumn("unread_count", 0).Error
}

// SetAIEnabled flips the toggle and forces the paired state transition:
// enabling hands the conversation to automation, disabling hands it to a
// human agent.
func (r *StorageRepository) SetAIEnabled(ctx context.Context, phone string, enabled bool) (*domainChatStorage.Conversation, error) {
	state := domainChatStorage.StateAgentActive
	if enabled {
		state = domainChatStorage.StateAIActive
	}
	result := r.db.WithContext(ctx).Model(&domainChatStorage.Conversation{}).
		Where("phone = ?", phone).
		Updates(map[string]any{"ai_enabled": enabled, "state": state})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, pkgError.NotFoundError("conversation not found: " + phone)
	}
	return r.GetConversation(ctx, phone)
}

func (r *StorageRepository) AssignAgent(ctx context.Context, phone string, agentID *uint) error {
	return r.db.WithContext(ctx).Model(&domainChatStorage.Conversation{}).
		Where("phone = ?", phone).Update("assigned_agent_id", agentID).Error
}

func (r *StorageRepository) ArchiveConversation(ctx context.Context, phone string) error {
	result := r.db.WithContext(ctx).Model(&domainChatStorage.Conversation{}).
		Where("phone = ?", phone).Update("status", domainChatStorage.StatusArchived)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError("conversation not found: " + phone)
	}
	return nil
}

// --- Messages ---

func (r *StorageRepository) MessageExists(ctx context.Context, externalID string) (bool, error) {
	if externalID == "" {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&domainChatStorage.Message{}).
		Where("external_id = ?", externalID).Count(&count).Error
	return count > 0, err
}

func (r *StorageRepository) InsertMessage(ctx context.Context, msg *domainChatStorage.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *StorageRepository) UpdateMessageStatus(ctx context.Context, id uint, status string, externalID *string) error {
	updates := map[string]any{"status": status}
	if externalID != nil {
		updates["external_id"] = *externalID
	}
	return r.db.WithContext(ctx).Model(&domainChatStorage.Message{}).
		Where("id = ?", id).Updates(updates).Error
}

func (r *StorageRepository) ListMessages(ctx context.Context, phone string, limit, offset int) ([]domainChatStorage.Message, int64, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := r.db.WithContext(ctx).Model(&domainChatStorage.Message{}).Where("phone = ?", phone)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var msgs []domainChatStorage.Message
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&msgs).Error
	if err != nil {
		return nil, 0, err
	}

	// Oldest first for rendering.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, total, nil
}

// --- Tags ---

func (r *StorageRepository) CreateTag(ctx context.Context, tag *domainChatStorage.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

func (r *StorageRepository) ListTags(ctx context.Context) ([]domainChatStorage.Tag, error) {
	var tags []domainChatStorage.Tag
	err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error
	return tags, err
}

func (r *StorageRepository) DeleteTag(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domainChatStorage.Tag{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError("tag not found")
	}
	return nil
}

func (r *StorageRepository) AssignTag(ctx context.Context, phone string, tagID uint) error {
	conv, err := r.GetConversation(ctx, phone)
	if err != nil {
		return err
	}
	if conv == nil {
		return pkgError.NotFoundError("conversation not found: " + phone)
	}
	var tag domainChatStorage.Tag
	if err := r.db.WithContext(ctx).First(&tag, tagID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgError.NotFoundError("tag not found")
		}
		return err
	}
	return r.db.WithContext(ctx).Model(conv).Association("Tags").Append(&tag)
}

func (r *StorageRepository) RemoveTag(ctx context.Context, phone string, tagID uint) error {
	conv, err := r.GetConversation(ctx, phone)
	if err != nil {
		return err
	}
	if conv == nil {
		return pkgError.NotFoundError("conversation not found: " + phone)
	}
	return r.db.WithContext(ctx).Model(conv).
		Association("Tags").Delete(&domainChatStorage.Tag{ID: tagID})
}

// --- Quick replies ---

func (r *StorageRepository) CreateQuickReply(ctx context.Context, qr *domainChatStorage.QuickReply) error {
	return r.db.WithContext(ctx).Create(qr).Error
}

func (r *StorageRepository) ListQuickReplies(ctx context.Context) ([]domainChatStorage.QuickReply, error) {
	var replies []domainChatStorage.QuickReply
	err := r.db.WithContext(ctx).Order("shortcut ASC").Find(&replies).Error
	return replies, err
}

func (r *StorageRepository) UpdateQuickReply(ctx context.Context, qr *domainChatStorage.QuickReply) error {
	result := r.db.WithContext(ctx).Model(&domainChatStorage.QuickReply{}).
		Where("id = ?", qr.ID).
		Updates(map[string]any{"shortcut": qr.Shortcut, "content": qr.Content, "media_url": qr.MediaURL})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError("quick reply not found")
	}
	return nil
}

func (r *StorageRepository) DeleteQuickReply(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domainChatStorage.QuickReply{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError("quick reply not found")
	}
	return nil
}

// --- AI knowledge ---

func (r *StorageRepository) CreateKnowledge(ctx context.Context, k *domainChatStorage.AIKnowledge) error {
	return r.db.WithContext(ctx).Create(k).Error
}

func (r *StorageRepository) GetKnowledge(ctx context.Context, id string) (*domainChatStorage.AIKnowledge, error) {
	var k domainChatStorage.AIKnowledge
	err := r.db.WithContext(ctx).First(&k, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (r *StorageRepository) ListKnowledge(ctx context.Context) ([]domainChatStorage.AIKnowledge, error) {
	var entries []domainChatStorage.AIKnowledge
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&entries).Error
	return entries, err
}

// UpdateKnowledge rewrites the metadata fields; the stored embedding is
// only touched when the caller supplies a new one, so edits coming from
// the dashboard never wipe a vector computed elsewhere.
func (r *StorageRepository) UpdateKnowledge(ctx context.Context, k *domainChatStorage.AIKnowledge) error {
	updates := map[string]any{
		"type":      k.Type,
		"title":     k.Title,
		"content":   k.Content,
		"media_url": k.MediaURL,
		"keywords":  k.Keywords,
	}
	if k.Embedding != nil {
		updates["embedding"] = k.Embedding
	}
	result := r.db.WithContext(ctx).Model(&domainChatStorage.AIKnowledge{}).
		Where("id = ?", k.ID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError("knowledge resource not found")
	}
	return nil
}

func (r *StorageRepository) DeleteKnowledge(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domainChatStorage.AIKnowledge{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError("knowledge resource not found")
	}
	return nil
}

var _ domainChatStorage.IChatStorageRepository = (*StorageRepository)(nil)
