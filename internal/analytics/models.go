package analytics

import "time"

// TrendBucket counts access events in one time slot by status code.
// TrendBucket 按状态码统计一个时间槽内的访问事件。
type TrendBucket struct {
	Timestamp   time.Time `json:"timestamp"`
	Total       int       `json:"total"`
	Status200   int       `json:"status200"`
	Status301   int       `json:"status301"`
	Status302   int       `json:"status302"`
	Status400   int       `json:"status400"`
	Status403   int       `json:"status403"`
	Status404   int       `json:"status404"`
	Status500   int       `json:"status500"`
	Status502   int       `json:"status502"`
	Status503   int       `json:"status503"`
	StatusOther int       `json:"statusOther"`
}

// AttackTypeStat aggregates WAF events sharing one attack type.
type AttackTypeStat struct {
	AttackType   string    `json:"attackType"`
	Count        int       `json:"count"`
	Severity     string    `json:"severity"`
	LastOccurred time.Time `json:"lastOccurred"`
	RuleIDs      []string  `json:"ruleIds"`
}

// Actions reported for a WAF event.
const (
	ActionBlocked = "blocked"
	ActionLogged  = "logged"
)

// LatestAttackEntry is one WAF event enriched for display.
type LatestAttackEntry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	AttackerIP string    `json:"attackerIp"`
	Domain     string    `json:"domain"`
	URLPath    string    `json:"urlPath"`
	AttackType string    `json:"attackType"`
	RuleID     string    `json:"ruleId"`
	UniqueID   string    `json:"uniqueId"`
	Severity   string    `json:"severity"`
	Action     string    `json:"action"`
}

// IPAnalyticsEntry counts the traffic of one client address.
type IPAnalyticsEntry struct {
	IP           string    `json:"ip"`
	RequestCount int       `json:"requestCount"`
	ErrorCount   int       `json:"errorCount"`
	AttackCount  int       `json:"attackCount"`
	LastSeen     time.Time `json:"lastSeen"`
}

// RequestAnalytics is the per-IP view over a period.
type RequestAnalytics struct {
	TopIPs        []IPAnalyticsEntry `json:"topIps"`
	TotalRequests int                `json:"totalRequests"`
	UniqueIPs     int                `json:"uniqueIps"`
	Period        string             `json:"period"`
}

// AttackRatioStats compares WAF events with all requests in the window.
type AttackRatioStats struct {
	TotalRequests    int     `json:"totalRequests"`
	AttackRequests   int     `json:"attackRequests"`
	NormalRequests   int     `json:"normalRequests"`
	AttackPercentage float64 `json:"attackPercentage"`
}

// LogStats counts events by level and type.
type LogStats struct {
	Total   int         `json:"total"`
	ByLevel LevelCounts `json:"byLevel"`
	ByType  TypeCounts  `json:"byType"`
}

// LevelCounts is LogStats.ByLevel.
type LevelCounts struct {
	Info    int `json:"info"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
}

// TypeCounts is LogStats.ByType.
type TypeCounts struct {
	Access int `json:"access"`
	Error  int `json:"error"`
	System int `json:"system"`
}
