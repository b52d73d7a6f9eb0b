package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	text, err := NormalizeText("  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := NormalizeText(in)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
}

func TestConversationMembership(t *testing.T) {
	conv := &Conversation{
		ID: "conv-1",
		Participants: []User{
			{ID: "u-a", ExternalID: "ext-a"},
			{ID: "u-b", ExternalID: "ext-b"},
		},
	}

	assert.True(t, conv.HasParticipant("ext-a"))
	assert.False(t, conv.HasParticipant("ext-c"))

	other := conv.OtherParticipant("ext-a")
	require.NotNil(t, other)
	assert.Equal(t, "ext-b", other.ExternalID)

	var nilConv *Conversation
	assert.False(t, nilConv.HasParticipant("ext-a"))
	assert.Nil(t, nilConv.OtherParticipant("ext-a"))
}
