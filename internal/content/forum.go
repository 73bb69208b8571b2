package content

import (
	"sync"
	"time"

	"afyalink.org/internal/ids"
)

// ForumCategories lists the valid post categories.
var ForumCategories = []string{
	"general",
	"menstruation",
	"fertility",
	"mental_health",
	"relationships",
	"support",
}

// Post is a community forum thread. Authors are always shown anonymously.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Likes     int       `json:"likes"`
	Replies   int       `json:"replies"`
	CreatedAt time.Time `json:"created_at"`
}

// Forum holds community posts in memory, newest first.
type Forum struct {
	mu    sync.RWMutex
	posts []Post
	now   func() time.Time
}

// NewForum seeds a forum with the launch discussion threads.
func NewForum() *Forum {
	f := &Forum{now: func() time.Time { return time.Now().UTC() }}
	base := f.now()
	seeds := []struct {
		title    string
		category string
		content  string
		likes    int
		replies  int
		age      time.Duration
	}{
		{
			title:    "Dealing with irregular periods - anyone else?",
			category: "menstruation",
			content:  "I've been having irregular periods for the past few months. Has anyone experienced this? Looking for advice and support.",
			likes:    15, replies: 8, age: 2 * time.Hour,
		},
		{
			title:    "First time expecting - feeling overwhelmed",
			category: "fertility",
			content:  "Just found out I'm pregnant with my first child. Feeling excited but also very overwhelmed. Any advice from experienced moms?",
			likes:    23, replies: 12, age: 5 * time.Hour,
		},
		{
			title:    "Managing anxiety during work stress",
			category: "mental_health",
			content:  "Work has been incredibly stressful lately and it's affecting my mental health. How do you all cope with work-related anxiety?",
			likes:    18, replies: 15, age: 24 * time.Hour,
		},
		{
			title:    "Self-care Sunday routines",
			category: "support",
			content:  "What does your self-care Sunday look like? I'm trying to establish a routine that helps me recharge for the week ahead.",
			likes:    31, replies: 22, age: 48 * time.Hour,
		},
	}
	for _, s := range seeds {
		f.posts = append(f.posts, Post{
			ID:        ids.New(),
			Title:     s.title,
			Category:  s.category,
			Author:    "Anonymous User",
			Content:   s.content,
			Likes:     s.likes,
			Replies:   s.replies,
			CreatedAt: base.Add(-s.age),
		})
	}
	return f
}

// ValidForumCategory reports whether c is an accepted post category.
func ValidForumCategory(c string) bool {
	for _, v := range ForumCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Posts returns forum threads newest first, optionally filtered by category.
// Empty category or "all" returns everything.
func (f *Forum) Posts(category string) []Post {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Post, 0, len(f.posts))
	for _, p := range f.posts {
		if category != "" && category != "all" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out
}

// CreatePost adds a thread to the top of the forum. The author identity is
// never stored; posts are anonymous by design of the community.
func (f *Forum) CreatePost(title, category, content string) Post {
	p := Post{
		ID:        ids.New(),
		Title:     title,
		Category:  category,
		Author:    "Anonymous User",
		Content:   content,
		CreatedAt: f.now(),
	}
	f.mu.Lock()
	f.posts = append([]Post{p}, f.posts...)
	f.mu.Unlock()
	return p
}

// Like increments a post's like counter and returns the new count. The second
// return is false when the post does not exist.
func (f *Forum) Like(id string) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == id {
			f.posts[i].Likes++
			return f.posts[i].Likes, true
		}
	}
	return 0, false
}
