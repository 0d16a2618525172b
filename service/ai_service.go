package service

import (
	"context"

	"github.com/tieubaoca/docqa-be/types"
)

// AIService generates an answer from a prompt and the prior conversation.
type AIService interface {
	Chat(ctx context.Context, prompt string, messages []types.Message) (string, error)
}
