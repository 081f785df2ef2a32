package models

// ChatMessage is one entry of the append-only message list stored at
// chats/{chatID}. Timestamp is epoch milliseconds.
type ChatMessage struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}
