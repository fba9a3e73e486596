package models

// MessageRequest for POST /api/v1/messages
type MessageRequest struct {
	Text string `json:"text"`
}

// ChannelAccount identifies a participant in an activity
type ChannelAccount struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// ConversationAccount identifies the conversation an activity belongs to
type ConversationAccount struct {
	ID string `json:"id,omitempty"`
}

// Activity is the subset of a Bot Framework activity used by POST /api/messages
type Activity struct {
	Type         string               `json:"type"`
	ID           string               `json:"id,omitempty"`
	Text         string               `json:"text,omitempty"`
	From         *ChannelAccount      `json:"from,omitempty"`
	Recipient    *ChannelAccount      `json:"recipient,omitempty"`
	Conversation *ConversationAccount `json:"conversation,omitempty"`
	ReplyToID    string               `json:"replyToId,omitempty"`
}

// ActivityTypeMessage is the only activity type that starts a turn
const ActivityTypeMessage = "message"
