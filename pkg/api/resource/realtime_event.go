package resource

type RealtimeEventResource struct {
	TenantID string      `json:"tenantId"`
	Topic    string      `json:"topic"`
	Data     interface{} `json:"data"`
}

func NewRealtimeEvent(tenantID, topic string, data interface{}) *RealtimeEventResource {
	return &RealtimeEventResource{
		TenantID: tenantID,
		Topic:    topic,
		Data:     data,
	}
}
