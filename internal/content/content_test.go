package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBotReplyMatchesKeywords(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"greeting", "Hello there", cannedReplies[0].text},
		{"case insensitive", "my PERIOD is late", cannedReplies[1].text},
		{"keyword inside sentence", "could this be pcos?", cannedReplies[2].text},
		{"first keyword wins", "hello, question about pregnancy", cannedReplies[0].text},
		{"no match", "what is the weather", defaultReply},
		{"empty", "", defaultReply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BotReply(tt.message))
		})
	}
}

func TestConversationTranscript(t *testing.T) {
	conv := NewConversation()
	require.Len(t, conv.Messages(), 1)
	assert.Equal(t, Greeting, conv.Messages()[0].Text)

	reply := conv.Say("tell me about PCOS")
	assert.Contains(t, reply, "Polycystic")

	msgs := conv.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", msgs[1].From)
	assert.Equal(t, "tell me about PCOS", msgs[1].Text)
	assert.Equal(t, "bot", msgs[2].From)

	msgs[0].Text = "tampered"
	assert.Equal(t, Greeting, conv.Messages()[0].Text)
}

func TestEmergencyContactsCopy(t *testing.T) {
	got := EmergencyContacts("")
	require.Len(t, got, 4)
	assert.Equal(t, "999", got[0].Number)

	got[0].Number = "changed"
	assert.Equal(t, "999", EmergencyContacts("all")[0].Number)
}

func TestEmergencyContactsByType(t *testing.T) {
	legal := EmergencyContacts("legal")
	require.Len(t, legal, 1)
	assert.Equal(t, "Kenya Women Lawyers Association", legal[0].Name)

	assert.Empty(t, EmergencyContacts("veterinary"))
}

func TestArticlesFilter(t *testing.T) {
	all := Articles("", "")
	require.Len(t, all, 6)

	fertility := Articles("fertility", "")
	require.Len(t, fertility, 1)
	assert.Equal(t, "PCOS: Symptoms and Management", fertility[0].Title)

	search := Articles("all", "menopause")
	require.Len(t, search, 1)
	assert.Equal(t, "Preparing for Menopause", search[0].Title)

	assert.Empty(t, Articles("fertility", "menopause"))
}

func TestForumCreatePostPrepends(t *testing.T) {
	f := NewForum()
	before := len(f.Posts(""))

	p := f.CreatePost("New thread", "general", "hi all")
	require.NotEmpty(t, p.ID)
	assert.Equal(t, "Anonymous User", p.Author)

	posts := f.Posts("")
	require.Len(t, posts, before+1)
	assert.Equal(t, p.ID, posts[0].ID)
}

func TestForumCategoryFilter(t *testing.T) {
	f := NewForum()

	mental := f.Posts("mental_health")
	require.Len(t, mental, 1)
	assert.Equal(t, "Managing anxiety during work stress", mental[0].Title)

	assert.Len(t, f.Posts("all"), 4)
	assert.Empty(t, f.Posts("relationships"))
}

func TestForumLike(t *testing.T) {
	f := NewForum()
	p := f.CreatePost("Likeable", "support", "body")

	n, ok := f.Like(p.ID)
	require.True(t, ok)
	assert.Equal(t, 1, n)

	_, ok = f.Like("post-nope")
	assert.False(t, ok)
}

func TestValidForumCategory(t *testing.T) {
	assert.True(t, ValidForumCategory("general"))
	assert.True(t, ValidForumCategory("mental_health"))
	assert.False(t, ValidForumCategory("spam"))
	assert.False(t, ValidForumCategory(""))
}
