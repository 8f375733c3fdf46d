package model

// Источник данных в ответе API
const (
	SourceUpstream = "upstream" // живые данные из Bunq API
	SourceDemo     = "demo"     // синтетические данные
)

// Response - единый конверт JSON-ответа API
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Error   string      `json:"error,omitempty"`
	Source  string      `json:"source,omitempty"`
	Note    string      `json:"note,omitempty"`
}

// HealthStatus - ответ эндпоинта /api/health
type HealthStatus struct {
	Status         string `json:"status"`
	Timestamp      string `json:"timestamp"`
	Version        string `json:"version"`
	APIStatus      string `json:"api_status"`
	Security       string `json:"security"`
	AuthConfigured bool   `json:"auth_configured"`
}
