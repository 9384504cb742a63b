package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainConversation "github.com/wadesk/wadesk/domains/conversation"
	pkgError "github.com/wadesk/wadesk/pkg/error"
)

func ValidateCreateConversation(ctx context.Context, request *domainConversation.CreateRequest) error {
	err := validation.ValidateStructWithContext(ctx, request,
		validation.Field(&request.Phone, validation.Required, validation.Length(7, 32)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func ValidateReply(ctx context.Context, request *domainConversation.ReplyRequest) error {
	err := validation.ValidateStructWithContext(ctx, request,
		validation.Field(&request.Phone, validation.Required),
		validation.Field(&request.Text, validation.Required.When(request.MediaURL == "").Error("text is required when no media is attached")),
		validation.Field(&request.MediaType, validation.Required.When(request.MediaURL != "").Error("media_type is required when media is attached"), validation.In("image", "video", "audio", "document")),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}
