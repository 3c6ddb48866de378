package search

import (
	"strings"

	"github.com/rushteam/shopkit/core"
)

// MaxUserIDLen 是 user_id 的最大长度。
const MaxUserIDLen = 128

// SanitizeUserID 校验并清洗 user_id。
// 空串合法（匿名请求）；超长或含有换行/逗号的 id 直接拒绝，
// 这些字符会破坏日志行与缓存 key 的结构。
func SanitizeUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", nil
	}
	if len(userID) > MaxUserIDLen {
		return "", core.ErrInvalidUserID
	}
	if strings.ContainsAny(userID, "\n\r,") {
		return "", core.ErrInvalidUserID
	}
	return userID, nil
}

// ValidateQuery 校验检索词：去掉首尾空白后不能为空。
func ValidateQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", core.ErrInvalidQuery
	}
	return query, nil
}
