package lark

import (
	"context"
	"encoding/json"
	"fmt"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/bnrm/backoffice/internal/application/port"
)

// messageCreator is the IM message endpoint of the SDK
type messageCreator interface {
	Create(ctx context.Context, req *larkim.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error)
}

// Messenger implements port.MessageSender over the Lark IM API
type Messenger struct {
	messages messageCreator
	logger   *zap.Logger
}

var _ port.MessageSender = (*Messenger)(nil)

// NewMessenger creates a new Lark message sender
func NewMessenger(sdk *SDKClient, logger *zap.Logger) *Messenger {
	return &Messenger{
		messages: sdk.GetClient().Im.Message,
		logger:   logger,
	}
}

// SendText posts a text message to a group chat
func (m *Messenger) SendText(ctx context.Context, chatID string, text string) error {
	if chatID == "" {
		return fmt.Errorf("chatID cannot be empty")
	}
	if text == "" {
		return fmt.Errorf("text cannot be empty")
	}

	body, err := textMessageBody(chatID, text)
	if err != nil {
		return err
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("chat_id").
		Body(body).
		Build()

	resp, err := m.messages.Create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("chat_id", chatID),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("chat_id", chatID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}

	m.logger.Info("Message sent successfully",
		zap.String("message_id", messageID),
		zap.String("chat_id", chatID))

	return nil
}

// textMessageBody builds the IM payload of a plain text message
func textMessageBody(chatID, text string) (*larkim.CreateMessageReqBody, error) {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}

	return larkim.NewCreateMessageReqBodyBuilder().
		ReceiveId(chatID).
		MsgType("text").
		Content(string(content)).
		Build(), nil
}
