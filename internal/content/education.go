package content

import "strings"

// Article is an education hub entry.
type Article struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Author   string `json:"author"`
	ReadTime string `json:"read_time"`
	Excerpt  string `json:"excerpt"`
	Featured bool   `json:"featured"`
}

// EducationCategories lists the hub's filter categories.
var EducationCategories = []string{
	"menstruation",
	"fertility",
	"menopause",
	"cancer",
	"mental_health",
	"general",
}

var articles = []Article{
	{
		ID:       1,
		Title:    "Understanding Your Menstrual Cycle",
		Category: "menstruation",
		Author:   "Dr. Sarah Johnson",
		ReadTime: "5 min read",
		Excerpt:  "Learn about the phases of your menstrual cycle and what's normal for your body.",
		Featured: true,
	},
	{
		ID:       2,
		Title:    "PCOS: Symptoms and Management",
		Category: "fertility",
		Author:   "Dr. Mary Wanjiku",
		ReadTime: "8 min read",
		Excerpt:  "Comprehensive guide to understanding and managing Polycystic Ovary Syndrome.",
		Featured: true,
	},
	{
		ID:       3,
		Title:    "Preparing for Menopause",
		Category: "menopause",
		Author:   "Dr. Grace Achieng",
		ReadTime: "6 min read",
		Excerpt:  "What to expect during perimenopause and menopause, and how to manage symptoms.",
	},
	{
		ID:       4,
		Title:    "Breast Cancer Prevention",
		Category: "cancer",
		Author:   "Dr. Ruth Muthoni",
		ReadTime: "7 min read",
		Excerpt:  "Essential screening guidelines and lifestyle factors for breast cancer prevention.",
	},
	{
		ID:       5,
		Title:    "Managing Anxiety and Depression",
		Category: "mental_health",
		Author:   "Dr. Alice Nyong",
		ReadTime: "10 min read",
		Excerpt:  "Strategies for maintaining mental health and when to seek professional help.",
	},
	{
		ID:       6,
		Title:    "Nutrition for Women's Health",
		Category: "general",
		Author:   "Dr. Faith Kiprotich",
		ReadTime: "6 min read",
		Excerpt:  "Essential nutrients and dietary tips for optimal women's health at every age.",
	},
}

// Articles filters the hub by category and a case-insensitive search term over
// title and excerpt. Empty category or "all" disables the category filter;
// empty search disables the term filter.
func Articles(category, search string) []Article {
	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if category != "" && category != "all" && a.Category != category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(a.Title), term) &&
			!strings.Contains(strings.ToLower(a.Excerpt), term) {
			continue
		}
		out = append(out, a)
	}
	return out
}
