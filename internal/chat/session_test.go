package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lorealchat/internal/models"
)

func TestNewSessionStartsWithSystemPrompt(t *testing.T) {
	sess := NewSession("id-1", "system prompt")
	sess.Greet("Hello!")
	sess.Greet("")

	log := sess.Messages()
	require.Len(t, log, 2)
	assert.Equal(t, models.Message{Role: models.RoleSystem, Content: "system prompt"}, log[0])
	assert.Equal(t, models.Message{Role: models.RoleAssistant, Content: "Hello!"}, log[1])
}

func TestSnapshotRoundTrip(t *testing.T) {
	sess := NewSession("id-2", "system")
	sess.recordQuestion("hi", Composer{})
	sess.appendAssistant("hello")
	sess.context.SetNameIfUnset("Ines")

	restored, err := RestoreSession(sess.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, sess.ID, restored.ID)
	assert.Equal(t, sess.Messages(), restored.Messages())
	assert.Equal(t, sess.Context(), restored.Context())
}

func TestRestoreSessionRequiresSystemMessage(t *testing.T) {
	_, err := RestoreSession(Snapshot{ID: "x"})
	assert.Error(t, err)

	_, err = RestoreSession(Snapshot{ID: "x", Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}}})
	assert.Error(t, err)
}
