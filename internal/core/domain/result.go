package domain

// Outcome is one item's result from a batch pass (bill processing,
// interest accrual). Batch passes never abort on a single failure; they
// collect one Outcome per item for the scheduler or API caller to report.
type Outcome struct {
	ItemID  string `json:"item_id"`
	Status  string `json:"status"` // "success" or "error"
	Message string `json:"message"`
}

func SuccessOutcome(id, message string) Outcome {
	return Outcome{ItemID: id, Status: "success", Message: message}
}

func ErrorOutcome(id string, err error) Outcome {
	return Outcome{ItemID: id, Status: "error", Message: err.Error()}
}
