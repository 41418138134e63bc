package memory

import (
	"slices"

	"github.com/sakif/journalize/internal/model"
)

func cloneUser(u model.User) *model.User {
	u.GitHubID = cloneID(u.GitHubID)
	return &u
}

func cloneFolder(f model.Folder) *model.Folder {
	f.ParentID = cloneID(f.ParentID)
	return &f
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// sortByID puts records in creation order. Ids come from one increasing
// counter, so id order is insertion order.
func sortByID[T any](items []T, id func(T) int64) {
	slices.SortFunc(items, func(a, b T) int {
		ia, ib := id(a), id(b)
		switch {
		case ia < ib:
			return -1
		case ia > ib:
			return 1
		}
		return 0
	})
}
