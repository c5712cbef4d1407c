package models

// OrderRecord is the record filled progressively across form steps. It is not
// complete until both fields are set and the user has confirmed.
type OrderRecord struct {
	Item         string `json:"item,omitempty"`
	DeliveryDate string `json:"delivery_date,omitempty"`
}

// Entities are the structured values the extractor pulls out of one utterance.
// Deliver carries the raw item-like phrases as spoken; Items carries only the
// phrases that mapped to a catalog entry, in canonical form.
type Entities struct {
	Deliver  []string `json:"deliver,omitempty"`
	Items    []string `json:"itemList,omitempty"`
	Datetime string   `json:"datetime,omitempty"`
}

// RecognizedIntent is produced once per free-text utterance and consumed
// immediately; it is never retained across turns.
type RecognizedIntent struct {
	Intent   string   `json:"intent"`
	Entities Entities `json:"entities"`
}

// Intent labels.
const (
	IntentPlaceOrder = "PlaceOrder"
	IntentNone       = "None"
)

// NATS turn request from the channel host.
type TurnRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	Message   string `json:"message"`
}

// NATS turn response back to the channel host. Order is set only on the turn
// that completes an order.
type TurnResponse struct {
	SessionID    string       `json:"session_id"`
	Messages     []string     `json:"messages"`
	Order        *OrderRecord `json:"order,omitempty"`
	Status       string       `json:"status"`
	ErrorCode    *string      `json:"error_code,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
}

// NATS transcript request/response.
type HistoryRequest struct {
	SessionID string `json:"session_id"`
}

type HistoryResponse struct {
	SessionID    string  `json:"session_id"`
	Transcript   string  `json:"transcript"`
	Status       string  `json:"status"`
	ErrorCode    *string `json:"error_code,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

// Status constants.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Error codes.
const (
	ErrorParseError   = "PARSE_ERROR"
	ErrorSessionStore = "SESSION_STORE_FAILED"
	ErrorTurnFailed   = "TURN_FAILED"
)
