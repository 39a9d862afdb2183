package gormpersistence

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry 是 MySQL 唯一约束冲突的错误码。
const mysqlDuplicateEntry = 1062

// isDuplicateEntryError 判断错误是否为唯一约束冲突。
// 优先使用 MySQL 驱动的错误码，其他驱动 (测试用的 SQLite) 回退到错误字符串匹配。
func isDuplicateEntryError(err error) bool {
	if err == nil {
		return false
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // SQLite
		strings.Contains(msg, "Duplicate entry") || // MySQL
		strings.Contains(msg, "duplicate key value violates unique constraint") // PostgreSQL
}
