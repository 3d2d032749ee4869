package api

// HealthResponse представляет ответ GET /health
type HealthResponse struct {
	Status      string   `json:"status"`
	AppID       string   `json:"app_id"`
	ServiceName string   `json:"service_name"`
	Version     string   `json:"version,omitempty"`
	Peers       []string `json:"peers"` // app ID подключенных пиров
	Objects     int      `json:"objects"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
