// internal/database/tree.go
package database

import (
	"context"

	"marshlink/internal/models"
	"marshlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxThreadDepth bounds descendant traversal. Reply chains never get close
// to this in practice; hitting it means the parent links are corrupted.
const maxThreadDepth = 64

// CollectDescendants walks the reply tree under the given comments breadth
// first and returns every descendant comment, roots excluded. A visited set
// makes the walk terminate even if parent links ever form a cycle.
func CollectDescendants(ctx context.Context, s Store, rootIDs []primitive.ObjectID) ([]*models.Comment, error) {
	descendants := make([]*models.Comment, 0)
	visited := make(map[primitive.ObjectID]bool, len(rootIDs))
	for _, id := range rootIDs {
		visited[id] = true
	}

	frontier := rootIDs
	for depth := 0; len(frontier) > 0; depth++ {
		if depth >= maxThreadDepth {
			return nil, utils.NewAppError(utils.ErrDatabase, "comment tree exceeds maximum depth", nil)
		}

		children, err := s.FindCommentsByParents(ctx, frontier)
		if err != nil {
			return nil, err
		}

		next := make([]primitive.ObjectID, 0, len(children))
		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			descendants = append(descendants, child)
			next = append(next, child.ID)
		}
		frontier = next
	}

	return descendants, nil
}
