package chat

// Sender identifies who wrote a Message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is one entry in the conversation. ID is the creation time in
// Unix milliseconds, so two messages created in the same millisecond share it.
type Message struct {
	ID     int64
	Text   string
	Sender Sender
}
