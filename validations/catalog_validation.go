package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainChatStorage "github.com/wadesk/wadesk/domains/chatstorage"
	pkgError "github.com/wadesk/wadesk/pkg/error"
)

func ValidateTag(ctx context.Context, tag *domainChatStorage.Tag) error {
	err := validation.ValidateStructWithContext(ctx, tag,
		validation.Field(&tag.Name, validation.Required, validation.Length(1, 50)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func ValidateQuickReply(ctx context.Context, qr *domainChatStorage.QuickReply) error {
	err := validation.ValidateStructWithContext(ctx, qr,
		validation.Field(&qr.Shortcut, validation.Required, validation.Length(1, 50)),
		validation.Field(&qr.Content, validation.Required),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func ValidateKnowledge(ctx context.Context, k *domainChatStorage.AIKnowledge) error {
	err := validation.ValidateStructWithContext(ctx, k,
		validation.Field(&k.Type, validation.Required, validation.In("image", "video", "audio", "document", "text")),
		validation.Field(&k.Content, validation.Required.When(k.MediaURL == nil).Error("content is required for resources without media")),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}
