package chat

type ensureRequest struct {
	CounterpartID string   `json:"counterpart_id" binding:"required"`
	Metadata      Metadata `json:"metadata"`
}

type sendRequest struct {
	CounterpartID string   `json:"counterpart_id" binding:"required"`
	Text          string   `json:"text"`
	Metadata      Metadata `json:"metadata"`
}
