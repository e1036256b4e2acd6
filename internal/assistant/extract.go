// ABOUTME: Selects the newest assistant message and pulls out its first text block
// ABOUTME: Missing text yields a fixed fallback string rather than an error

package assistant

// FallbackReply is returned when the newest assistant message carries no text block.
const FallbackReply = "Error processing the message."

// ExtractReply picks the newest assistant message from messages (ordered newest
// first) and returns the value of its first text block.
func ExtractReply(messages []Message) (string, error) {
	for _, m := range messages {
		if m.Role != RoleAssistant {
			continue
		}
		for _, block := range m.Content {
			if block.Type == ContentTypeText {
				return block.Text, nil
			}
		}
		return FallbackReply, nil
	}
	return "", ErrNoAssistantResponse
}
