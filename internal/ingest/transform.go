package ingest

import (
	"slices"

	"fgfbot/internal/model"
)

// MaxTitleRunes is the longest title kept verbatim; longer titles are cut and get Ellipsis.
const MaxTitleRunes = 165

const Ellipsis = "..."

// DefaultSkipFlairs are the flair classes never cross-posted: moderator posts and giveaways.
var DefaultSkipFlairs = []string{"modpost", "fgfGiveaway"}

// Chronological returns a reversed copy of newest-first feed items.
func Chronological(posts []model.Post) []model.Post {
	out := slices.Clone(posts)
	slices.Reverse(out)
	return out
}

// FilterFlairs drops posts whose flair is in skip. Order is preserved.
func FilterFlairs(posts []model.Post, skip []string) []model.Post {
	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if slices.Contains(skip, p.Flair) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Unseen returns the posts whose ID is not in saved, as SavedPosts with
// truncated titles. An ID repeated within posts is kept once.
func Unseen(posts []model.Post, saved []model.SavedPost) []model.SavedPost {
	seen := make(map[string]struct{}, len(saved)+len(posts))
	for _, s := range saved {
		seen[s.ID] = struct{}{}
	}

	var out []model.SavedPost
	for _, p := range posts {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, model.SavedPost{ID: p.ID, Title: TruncateTitle(p.Title)})
	}
	return out
}

// TruncateTitle keeps the first MaxTitleRunes characters and appends Ellipsis
// when title is longer. Lengths are counted in runes, not bytes.
func TruncateTitle(title string) string {
	r := []rune(title)
	if len(r) <= MaxTitleRunes {
		return title
	}
	return string(r[:MaxTitleRunes]) + Ellipsis
}
