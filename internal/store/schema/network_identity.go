package schema

import (
	"fmt"
	"time"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
)

// UserAgent represents the user_agents table - the user-agent half of the
// rotating network identity pool
type UserAgent struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Value is the full User-Agent header string
	Value       string `gorm:"column:value;not null;uniqueIndex;type:text"`
	Description string `gorm:"column:description;type:text"`
	// IsActive gates selection from the pool
	IsActive bool `gorm:"column:is_active;not null;default:true"`
	// LastChecked is when this agent was last used or verified
	LastChecked *time.Time `gorm:"column:last_checked"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the UserAgent model
func (UserAgent) TableName() string {
	return "user_agents"
}

// ProxyServer represents the proxy_servers table - the proxy half of the
// rotating network identity pool
type ProxyServer struct {
	ID       uint64               `gorm:"column:id;primaryKey;autoIncrement"`
	Protocol domain.ProxyProtocol `gorm:"column:protocol;not null;type:text;uniqueIndex:idx_proxies_endpoint,priority:1"`
	Host     string               `gorm:"column:host;not null;type:text;uniqueIndex:idx_proxies_endpoint,priority:2"`
	Port     uint16               `gorm:"column:port;not null;uniqueIndex:idx_proxies_endpoint,priority:3"`
	Username string               `gorm:"column:username;type:text"`
	Password string               `gorm:"column:password;type:text"`

	// Country is an ISO 3166-1 alpha-2 code
	Country string `gorm:"column:country;type:text"`
	// LatencyMS is the average observed latency in milliseconds
	LatencyMS *float64 `gorm:"column:latency_ms"`

	// IsActive gates selection from the pool; IsWorking is the liveness verdict
	// from actual use, flipped false when a proxy keeps failing
	IsActive    bool       `gorm:"column:is_active;not null;default:true"`
	IsWorking   bool       `gorm:"column:is_working;not null;default:true"`
	LastChecked *time.Time `gorm:"column:last_checked"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the ProxyServer model
func (ProxyServer) TableName() string {
	return "proxy_servers"
}

// URL renders the proxy address as protocol://host:port
func (p *ProxyServer) URL() string {
	return fmt.Sprintf("%s://%s:%d", p.Protocol, p.Host, p.Port)
}
