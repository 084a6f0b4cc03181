package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Landing states for bundle submissions.
const (
	LandingPending = "pending"
	LandingLanded  = "landed"
	LandingFailed  = "failed"
	LandingDropped = "dropped"
)

// TokenLaunch is one completed launch.
type TokenLaunch struct {
	ID            uint        `gorm:"primarykey" json:"id"`
	Mint          string      `gorm:"size:64;uniqueIndex;not null" json:"mint"`
	Name          string      `gorm:"size:128;not null" json:"name"`
	Symbol        string      `gorm:"size:32;not null" json:"symbol"`
	Description   string      `gorm:"type:text" json:"description"`
	Decimals      int         `gorm:"not null" json:"decimals"`
	Supply        uint64      `gorm:"type:numeric(20,0);not null" json:"supply"`
	Protocol      string      `gorm:"size:32;not null;index" json:"protocol"`
	Network       string      `gorm:"size:16;not null" json:"network"`
	Payer         string      `gorm:"size:64;index" json:"payer"`
	Status        string      `gorm:"size:16;not null" json:"status"`
	Signatures    StringSlice `gorm:"type:jsonb" json:"signatures"`
	MetadataURI   string      `gorm:"type:text" json:"metadata_uri"`
	ExplorerURL   string      `gorm:"type:text" json:"explorer_url"`
	BundleID      string      `gorm:"size:128" json:"bundle_id"`
	LandingStatus string      `gorm:"size:16;index" json:"landing_status"`
	Warnings      StringSlice `gorm:"type:jsonb" json:"warnings"`
	Website       string      `gorm:"size:255" json:"website"`
	Twitter       string      `gorm:"size:255" json:"twitter"`
	Telegram      string      `gorm:"size:255" json:"telegram"`
	Discord       string      `gorm:"size:255" json:"discord"`
	LaunchedAt    time.Time   `gorm:"not null" json:"launched_at"`
	CreatedAt     time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TokenLaunch) TableName() string {
	return "token_launches"
}

// StringSlice stores a string list as a jsonb array.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(raw, (*[]string)(s))
}
