package handler

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type listQueryValues struct {
	Page   int
	Size   int
	Offset int
}

// retrieveListQueryValues parses the pagination query string. Pages are
// 1-indexed; out-of-range values fall back to the defaults instead of
// failing the request.
func retrieveListQueryValues(r *http.Request) *listQueryValues {
	queryValues := &listQueryValues{
		Page: 1,
		Size: defaultPageSize,
	}

	if sizeStr := r.URL.Query().Get("size"); sizeStr != "" {
		if parsedSize, err := strconv.Atoi(sizeStr); err == nil && parsedSize > 0 && parsedSize <= maxPageSize {
			queryValues.Size = parsedSize
		}
	}

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if parsedPage, err := strconv.Atoi(pageStr); err == nil && parsedPage >= 1 {
			queryValues.Page = parsedPage
		}
	}

	queryValues.Offset = (queryValues.Page - 1) * queryValues.Size

	return queryValues
}
