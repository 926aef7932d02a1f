package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParseListWindow safely parses and validates offset and limit query
// parameters for list endpoints. Both default to 0; a limit of 0 means no
// limit (return everything from offset on).
func ParseListWindow(c *gin.Context) (offset, limit int, err error) {
	offsetStr := c.DefaultQuery("offset", "0")
	offset, err = strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset parameter: must be a non-negative integer")
	}

	limitStr := c.DefaultQuery("limit", "0")
	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		return 0, 0, fmt.Errorf("invalid limit parameter: must be a non-negative integer")
	}

	return offset, limit, nil
}

// ApplyListWindow slices records to the parsed window.
func ApplyListWindow[T any](records []T, offset, limit int) []T {
	if offset >= len(records) {
		return records[:0]
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}
