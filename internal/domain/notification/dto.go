package notification

type markAllRequest struct {
	IDs []string `json:"ids"`
}
