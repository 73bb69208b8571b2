// Package content serves the static and lightly dynamic guidance surfaces:
// the keyword chatbot, emergency contacts, the education hub and the
// community forum.
package content

import (
	"strings"
	"sync"
)

type reply struct {
	keyword string
	text    string
}

// Replies are matched in declaration order so that a message containing two
// keywords gets a deterministic answer.
var cannedReplies = []reply{
	{"hello", "Hello! I'm your AI health assistant. How can I help you today?"},
	{"period", "Menstrual cycles typically last 21-35 days. If you're experiencing irregularities, pain, or have concerns, I recommend consulting with a healthcare professional."},
	{"pcos", "PCOS (Polycystic Ovary Syndrome) is a hormonal disorder common among women. Symptoms include irregular periods, excess hair growth, and weight gain. Please consult a doctor for proper diagnosis."},
	{"pregnancy", "If you suspect you might be pregnant, consider taking a home pregnancy test or consulting with a healthcare provider for confirmation and prenatal care."},
	{"contraception", "There are many contraceptive options available including pills, IUDs, implants, and barrier methods. Discuss with your healthcare provider to find the best option for you."},
	{"emergency", "If this is a medical emergency, please call emergency services immediately or go to the nearest hospital. For crisis support, contact the emergency hotlines available in our Emergency Support section."},
}

const defaultReply = "I understand you have health concerns. While I can provide general information, please remember that I cannot replace professional medical advice. Consider consulting with a healthcare provider for personalized care."

// Greeting is the bot's opening message for a fresh conversation.
const Greeting = "Hello! I'm your AI health assistant. I can help answer general health questions and guide you to appropriate resources. How can I assist you today?"

// BotReply answers a user message by case-insensitive keyword containment,
// falling back to a general disclaimer when nothing matches.
func BotReply(message string) string {
	lower := strings.ToLower(message)
	for _, r := range cannedReplies {
		if strings.Contains(lower, r.keyword) {
			return r.text
		}
	}
	return defaultReply
}

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	From string `json:"from"` // "user" or "bot"
	Text string `json:"text"`
}

// Conversation holds a chat transcript, opened with the bot's greeting.
type Conversation struct {
	mu       sync.Mutex
	messages []ChatMessage
}

func NewConversation() *Conversation {
	return &Conversation{messages: []ChatMessage{{From: "bot", Text: Greeting}}}
}

// Say records the user message and the bot's answer, returning the answer.
func (c *Conversation) Say(message string) string {
	answer := BotReply(message)
	c.mu.Lock()
	c.messages = append(c.messages,
		ChatMessage{From: "user", Text: message},
		ChatMessage{From: "bot", Text: answer},
	)
	c.mu.Unlock()
	return answer
}

// Messages returns a copy of the transcript in order.
func (c *Conversation) Messages() []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ChatMessage(nil), c.messages...)
}
