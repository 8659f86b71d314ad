package provider

import (
	"context"

	"github.com/cortexlab/discovery/message"
)

// Provider is a language-model backend able to answer a prompt exchange.
type Provider interface {
	// Name identifies the backend in logs and trace entries.
	Name() string

	// Generate sends the conversation to the backend and returns the
	// assistant reply.
	Generate(ctx context.Context, messages []*message.Message) (*message.Message, error)
}
