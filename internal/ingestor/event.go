package ingestor

// Event is the generic envelope published to user.events, auth.events,
// order.events and payment.events. Only the fields a given eventType
// needs are populated by the producer; the rest are left zero.
type Event struct {
	EventType      string `json:"eventType"`
	UserID         string `json:"userId"`
	UserName       string `json:"userName,omitempty"`
	OrderID        string `json:"orderId,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

// BulkItem is one entry of a notification.bulk message's embedded list,
// shaped like SendNotificationData for a direct hand-off to the Dispatcher.
type BulkItem struct {
	UserID   string                 `json:"userId"`
	Type     string                 `json:"type"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Channel  string                 `json:"channel,omitempty"`
	Priority string                 `json:"priority,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// BulkMessage is the envelope published to notification.bulk.
type BulkMessage struct {
	BatchID            string     `json:"batchId"`
	TotalNotifications int        `json:"totalNotifications"`
	ChunkIndex         int        `json:"chunkIndex"`
	TotalChunks        int        `json:"totalChunks"`
	BulkNotifications  []BulkItem `json:"bulkNotifications"`
}
