package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// LocalTime is a custom time type to format time as "YYYY-MM-DD HH:MM:SS".
type LocalTime time.Time

const timeFormat = "2006-01-02 15:04:05"

// MarshalJSON implements the json.Marshaler interface.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	formatted := fmt.Sprintf("\"%s\"", time.Time(t).Format(timeFormat))
	return []byte(formatted), nil
}

// Value 实现 driver.Valuer，使 LocalTime 可以直接写入数据库。
func (t LocalTime) Value() (driver.Value, error) {
	return time.Time(t), nil
}

// Scan 实现 sql.Scanner，从数据库读取时间值。
func (t *LocalTime) Scan(v interface{}) error {
	value, ok := v.(time.Time)
	if !ok {
		return fmt.Errorf("无法将 %v 解析为时间", v)
	}
	*t = LocalTime(value)
	return nil
}
