package meta

// LedgerEvent 账本事件，交易提交后发布
type LedgerEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Campaign  string                 `json:"campaign"`
	Actor     string                 `json:"actor"`
	Amount    int64                  `json:"amount"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
