package rabbitmq

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GoArmGo/PromptReveal/internal/logger"
	"github.com/GoArmGo/PromptReveal/internal/messaging/payloads"
)

func TestDecide(t *testing.T) {
	log := logger.Discard()
	ok := func(context.Context, payloads.OrphanCleanupPayload) error { return nil }
	fail := func(context.Context, payloads.OrphanCleanupPayload) error { return errors.New("boom") }

	body := []byte(`{"keys":["prompts/a.jpg","thumbnails/a.jpg"],"reason":"persist failed"}`)

	var got payloads.OrphanCleanupPayload
	capture := func(_ context.Context, p payloads.OrphanCleanupPayload) error {
		got = p
		return nil
	}
	assert.Equal(t, outcomeAck, decide(context.Background(), body, false, capture, log))
	assert.Equal(t, []string{"prompts/a.jpg", "thumbnails/a.jpg"}, got.Keys)

	assert.Equal(t, outcomeAck, decide(context.Background(), body, true, ok, log))
	assert.Equal(t, outcomeRequeue, decide(context.Background(), body, false, fail, log))
	assert.Equal(t, outcomeDrop, decide(context.Background(), body, true, fail, log))
	assert.Equal(t, outcomeDrop, decide(context.Background(), []byte("{not json"), false, ok, log))
}
