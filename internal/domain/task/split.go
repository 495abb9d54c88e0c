package task

// SplitTask asks a worker to split one persisted product into its
// detected variants. Enqueued by operator batch actions.
type SplitTask struct {
	ProductID int64 `json:"product_id"`
}

func (t *SplitTask) TaskType() string {
	return "SplitTask"
}

func (t *SplitTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
