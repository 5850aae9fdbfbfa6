package payments

// CreatePreferenceRequest starts a checkout for an existing order. Order
// accepts the document id, the order number, or the external reference.
type CreatePreferenceRequest struct {
	Order string `json:"order_id" validate:"required"`
}

// StockProblem reports one line that can no longer be fulfilled.
type StockProblem struct {
	ProductID int64  `json:"product_id"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// PreferenceResponse carries the provider redirect targets.
type PreferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point,omitempty"`
}
