package utils

import "github.com/google/uuid"

// ConversationID derives the chat thread key for messages sent from one user
// to another. The key is directional: one logical thread between two users is
// stored under both ConversationID(a, b) and ConversationID(b, a).
func ConversationID(sender, receiver uuid.UUID) string {
	return sender.String() + "-" + receiver.String()
}

// ConversationIDs returns both directional keys of a thread.
func ConversationIDs(a, b uuid.UUID) []string {
	return []string{ConversationID(a, b), ConversationID(b, a)}
}
