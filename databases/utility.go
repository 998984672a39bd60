package databases

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultPageSize is used when a caller asks for a page without a size
const DefaultPageSize = 20

// MaxPageSize caps the number of documents returned by one page
const MaxPageSize = 100

type mongoPaginate struct {
	limit int64
	page  int64
}

func newMongoPaginate(limit, page int) *mongoPaginate {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
}

func (mp *mongoPaginate) getPaginatedOpts() *options.FindOptions {
	l := mp.limit
	skip := mp.page*mp.limit - mp.limit
	fOpt := options.FindOptions{Limit: &l, Skip: &skip}

	return &fOpt
}

// PageOptions returns find options for a 1-based page sorted by sortField.
// sortDir is "asc" or "desc"; anything else sorts descending.
func PageOptions(page, size int, sortField, sortDir string) *options.FindOptions {
	opts := newMongoPaginate(size, page).getPaginatedOpts()
	if sortField == "" {
		sortField = "createdAt"
	}
	dir := -1
	if sortDir == "asc" {
		dir = 1
	}
	opts.SetSort(bson.D{{Key: sortField, Value: dir}})
	return opts
}
