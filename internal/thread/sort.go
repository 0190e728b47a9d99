package thread

import (
	"slices"
	"strings"

	"commentfeed/internal/models"
)

// SortTree returns a sorted copy of forest. Only the top level is ordered by field and
// direction; replies at every depth stay in chronological order so threads read top
// to bottom. The input forest is left untouched.
func SortTree(forest []*models.CommentNode, field models.SortField, direction models.SortDirection) []*models.CommentNode {
	return sortLevel(forest, compare(field, direction))
}

func sortReplies(branch []*models.CommentNode) []*models.CommentNode {
	return sortLevel(branch, compare(models.SortByCreatedAt, models.SortAsc))
}

func sortLevel(level []*models.CommentNode, cmp func(a, b *models.CommentNode) int) []*models.CommentNode {
	out := make([]*models.CommentNode, len(level))
	for i, node := range level {
		out[i] = &models.CommentNode{
			Comment: node.Comment.Clone(),
			Replies: sortReplies(node.Replies),
		}
	}
	// 必须稳定排序，相等元素保持原有相对顺序
	slices.SortStableFunc(out, cmp)
	return out
}

// compare builds the comparator for one level. desc flips the sign instead of reversing
// the result so equal elements keep their relative order.
func compare(field models.SortField, direction models.SortDirection) func(a, b *models.CommentNode) int {
	multiplier := 1
	if direction == models.SortDesc {
		multiplier = -1
	}

	return func(a, b *models.CommentNode) int {
		switch field {
		case models.SortByUserName:
			return multiplier * foldCompare(a.UserName, b.UserName)
		case models.SortByEmail:
			return multiplier * foldCompare(a.Email, b.Email)
		default:
			// 零值时间视为无效，与任何时间都相等
			if a.CreatedAt.IsZero() || b.CreatedAt.IsZero() {
				return 0
			}
			return multiplier * a.CreatedAt.Compare(b.CreatedAt)
		}
	}
}

func foldCompare(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
