// ABOUTME: Tests for reply extraction from assistant messages
// ABOUTME: Covers newest-first selection, the text fallback and the empty case

package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractReply(t *testing.T) {
	tests := []struct {
		name     string
		messages []Message
		want     string
		wantErr  error
	}{
		{
			name: "newest assistant text",
			messages: []Message{
				{Role: RoleAssistant, Content: []ContentBlock{{Type: ContentTypeText, Text: "hello"}}},
				{Role: RoleUser, Content: []ContentBlock{{Type: ContentTypeText, Text: "hi"}}},
				{Role: RoleAssistant, Content: []ContentBlock{{Type: ContentTypeText, Text: "older"}}},
			},
			want: "hello",
		},
		{
			name: "skips newer user messages",
			messages: []Message{
				{Role: RoleUser, Content: []ContentBlock{{Type: ContentTypeText, Text: "again"}}},
				{Role: RoleAssistant, Content: []ContentBlock{{Type: ContentTypeText, Text: "reply"}}},
			},
			want: "reply",
		},
		{
			name: "first text block after non-text blocks",
			messages: []Message{
				{Role: RoleAssistant, Content: []ContentBlock{
					{Type: ContentTypeImageFile, ImageFileID: "file_1"},
					{Type: ContentTypeText, Text: "caption"},
					{Type: ContentTypeText, Text: "second"},
				}},
			},
			want: "caption",
		},
		{
			name: "no text block falls back",
			messages: []Message{
				{Role: RoleAssistant, Content: []ContentBlock{{Type: ContentTypeImageURL, ImageURL: "https://example.com/a.png"}}},
				{Role: RoleAssistant, Content: []ContentBlock{{Type: ContentTypeText, Text: "older"}}},
			},
			want: FallbackReply,
		},
		{
			name:     "empty content falls back",
			messages: []Message{{Role: RoleAssistant}},
			want:     FallbackReply,
		},
		{
			name: "no assistant messages",
			messages: []Message{
				{Role: RoleUser, Content: []ContentBlock{{Type: ContentTypeText, Text: "hi"}}},
			},
			wantErr: ErrNoAssistantResponse,
		},
		{
			name:    "empty list",
			wantErr: ErrNoAssistantResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractReply(tt.messages)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
