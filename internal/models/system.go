package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSON is a jsonb column mapped onto a map.
type JSON map[string]interface{}

// Scan implements sql.Scanner.
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return nil
		}
	}
	return json.Unmarshal(bytes, j)
}

// Value implements driver.Valuer.
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// OperationLog is an audit record of a staff action.
type OperationLog struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AdminID    int64     `gorm:"index;not null" json:"admin_id"`
	Module     string    `gorm:"type:varchar(50);not null" json:"module"`
	Action     string    `gorm:"type:varchar(50);not null" json:"action"`
	CouponCode *string   `gorm:"type:varchar(16);index" json:"coupon_code,omitempty"`
	Detail     JSON      `gorm:"type:jsonb" json:"detail,omitempty"`
	IP         string    `gorm:"type:varchar(45);not null" json:"ip"`
	UserAgent  *string   `gorm:"type:varchar(255)" json:"user_agent,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName sets the table name.
func (OperationLog) TableName() string {
	return "operation_logs"
}

// Operation log modules.
const (
	LogModuleCoupon = "coupon"
	LogModuleAuth   = "auth"
)

// Operation log actions.
const (
	LogActionVerify = "verify"
	LogActionRedeem = "redeem"
	LogActionCreate = "create"
	LogActionLogin  = "login"
	LogActionLogout = "logout"
)
