package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilmai/ilmcli/internal/client/models"
)

func TestTranscript_StartsWithGreeting(t *testing.T) {
	tr := NewTranscript()
	msgs := tr.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.RoleAssistant, msgs[0].Role)
	assert.Equal(t, Greeting, msgs[0].Content)
}

func TestTranscript_AppendPreservesOrder(t *testing.T) {
	tr := NewTranscript()
	tr.Append(models.Message{Role: models.RoleUser, Content: "first"})
	tr.Append(models.Message{Role: models.RoleAssistant, Content: "second"})

	msgs := tr.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[1].Content)
	assert.Equal(t, "second", msgs[2].Content)
}

func TestTranscript_ResetRestoresGreeting(t *testing.T) {
	tr := NewTranscript()
	tr.Append(models.Message{Role: models.RoleUser, Content: "hello"})
	tr.Reset()

	msgs := tr.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, Greeting, msgs[0].Content)
}

func TestTranscript_ReplaceWithHistory(t *testing.T) {
	tr := NewTranscript()
	history := []models.Message{
		{Role: models.RoleUser, Content: "What is wudu?"},
		{Role: models.RoleAssistant, Content: "Wudu is ritual purification."},
	}
	tr.Replace(history)

	msgs := tr.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "What is wudu?", msgs[0].Content)
}

func TestTranscript_ReplaceEmptyFallsBackToGreeting(t *testing.T) {
	tr := NewTranscript()
	tr.Append(models.Message{Role: models.RoleUser, Content: "hello"})
	tr.Replace(nil)

	msgs := tr.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, Greeting, msgs[0].Content)
}

func TestTranscript_GenerationTracksSwaps(t *testing.T) {
	tr := NewTranscript()
	gen := tr.Generation()

	tr.Append(models.Message{Role: models.RoleUser, Content: "hello"})
	assert.Equal(t, gen, tr.Generation(), "appends keep the generation")

	tr.Reset()
	assert.NotEqual(t, gen, tr.Generation())

	gen = tr.Generation()
	tr.Replace([]models.Message{{Role: models.RoleUser, Content: "q"}})
	assert.NotEqual(t, gen, tr.Generation())
}

func TestTranscript_MessagesReturnsCopy(t *testing.T) {
	tr := NewTranscript()
	msgs := tr.Messages()
	msgs[0].Content = "mutated"
	assert.Equal(t, Greeting, tr.Messages()[0].Content)
}
