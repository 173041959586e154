package service

import "math"

// pageNumber returns the 1-based page an offset falls on.
func pageNumber(offset, limit int) int {
	return offset/limit + 1
}

func totalPages(total int64, limit int) int {
	l := int64(limit)
	pages := total / l
	if total%l != 0 {
		pages++
	}
	return int(pages)
}

// offsetForPage returns the row offset of a 1-based page. It reports false
// when the offset does not fit in an int.
func offsetForPage(page, limit int) (int, bool) {
	if page-1 > math.MaxInt/limit {
		return 0, false
	}
	return (page - 1) * limit, true
}
