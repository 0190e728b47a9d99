// Package thread turns flat comment records into a reply forest and orders it.
package thread

import (
	"commentfeed/internal/models"
)

// BuildTree links every record to its parent and returns the top-level nodes.
//
// A record becomes a root when its parent is absent or unknown. Records whose parent
// chain loops back onto themselves are also promoted to roots, so every record is
// reachable exactly once. The order of roots and replies is the input order and carries
// no meaning; run SortTree before display.
func BuildTree(records []models.Comment) []*models.CommentNode {
	index := make(map[uint]*models.CommentNode, len(records))
	order := make([]*models.CommentNode, 0, len(records))
	slot := make(map[uint]int, len(records))

	// 第一遍：建立 id -> 节点索引，同一个 id 出现多次时保留最后一条，位置不变
	for _, r := range records {
		node := &models.CommentNode{Comment: r.Clone(), Replies: []*models.CommentNode{}}
		if i, ok := slot[r.ID]; ok {
			order[i] = node
		} else {
			slot[r.ID] = len(order)
			order = append(order, node)
		}
		index[r.ID] = node
	}

	looped := cycleMembers(index)

	// 第二遍：挂到父节点下，找不到父节点的作为根
	roots := make([]*models.CommentNode, 0)
	for _, node := range order {
		if parent := parentOf(node, index); parent != nil && !looped[node.ID] {
			parent.Replies = append(parent.Replies, node)
			continue
		}
		roots = append(roots, node)
	}
	return roots
}

func parentOf(node *models.CommentNode, index map[uint]*models.CommentNode) *models.CommentNode {
	if node.ParentID == nil {
		return nil
	}
	return index[*node.ParentID]
}

// cycleMembers reports the ids that sit on a parent cycle (self-parents included).
// Each node is visited once, so the walk is linear in the number of records.
func cycleMembers(index map[uint]*models.CommentNode) map[uint]bool {
	const (
		unvisited = iota
		walking
		done
	)
	state := make(map[uint]int, len(index))
	looped := make(map[uint]bool)

	for id := range index {
		if state[id] != unvisited {
			continue
		}
		var path []uint
		cur := id
		for {
			state[cur] = walking
			path = append(path, cur)
			parent := parentOf(index[cur], index)
			if parent == nil || state[parent.ID] == done {
				break
			}
			if state[parent.ID] == walking {
				// 父节点就在本次路径上，从它开始到路径末尾构成一个环
				for i := len(path) - 1; i >= 0; i-- {
					looped[path[i]] = true
					if path[i] == parent.ID {
						break
					}
				}
				break
			}
			cur = parent.ID
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return looped
}

// Count returns the number of nodes in the forest, replies included.
func Count(forest []*models.CommentNode) int {
	n := 0
	for _, node := range forest {
		n += 1 + Count(node.Replies)
	}
	return n
}
