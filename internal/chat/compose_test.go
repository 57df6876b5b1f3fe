package chat

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lorealchat/internal/models"
)

func TestComposeSummaryEmptyContext(t *testing.T) {
	got := ComposeSummary(models.SessionContext{})
	want := "Name: unknown\nNo prior questions recorded.\n" + DefaultClosingInstruction
	assert.Equal(t, want, got)
}

func TestComposeSummaryKeepsLastEightQuestions(t *testing.T) {
	ctx := models.SessionContext{UserName: "Alice"}
	for i := 1; i <= 11; i++ {
		ctx.RecordQuestion(fmt.Sprintf("q%d", i))
	}
	lines := strings.Split(ComposeSummary(ctx), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name: Alice", lines[0])
	assert.Equal(t, "Recent user questions: q4 | q5 | q6 | q7 | q8 | q9 | q10 | q11", lines[1])
	assert.Equal(t, DefaultClosingInstruction, lines[2])
}

func TestComposerCustomClosing(t *testing.T) {
	c := Composer{Closing: "Stay on topic."}
	assert.True(t, strings.HasSuffix(c.Summary(models.SessionContext{}), "\nStay on topic."))
}

func TestComposeRequestMessagesInsertsSummaryAtIndexOne(t *testing.T) {
	log := []models.Message{
		{Role: models.RoleSystem, Content: "system"},
		{Role: models.RoleAssistant, Content: "hello"},
		{Role: models.RoleUser, Content: "hi"},
	}
	original := append([]models.Message(nil), log...)
	ctx := models.SessionContext{PastQuestions: []string{"hi"}}

	got := ComposeRequestMessages(log, ctx)
	require.Len(t, got, len(log)+1)
	assert.Equal(t, log[0], got[0])
	assert.Equal(t, models.Message{Role: models.RoleSystem, Content: ComposeSummary(ctx)}, got[1])
	assert.Equal(t, log[1:], got[2:])
	assert.Equal(t, original, log, "log must not be mutated")
}

func TestComposeRequestMessagesRecomputesSummary(t *testing.T) {
	log := []models.Message{{Role: models.RoleSystem, Content: "system"}}
	ctx := models.SessionContext{}
	first := ComposeRequestMessages(log, ctx)

	ctx.SetNameIfUnset("Zoe")
	second := ComposeRequestMessages(log, ctx)
	assert.NotEqual(t, first[1].Content, second[1].Content)
	assert.Contains(t, second[1].Content, "Name: Zoe")
}
