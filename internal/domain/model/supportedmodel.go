package model

// RequestRejectedMessage is the user-facing message shown for any non-success
// response from the model catalog, regardless of status code or body.
const RequestRejectedMessage = "Failed to fetch models"

// SupportedModel is a model name returned by the catalog. Name is the sort key
// and the row identity in the rendered list.
type SupportedModel struct {
	Name string `json:"model_name"`
}

// UpstreamModel is a model entry as reported by the upstream service, where a
// missing name is distinguishable from an empty one.
type UpstreamModel struct {
	Name *string `json:"model_name"`
}

// TrainingClient is the acknowledgement returned after a LoRA training client
// has been created upstream for BaseModel.
type TrainingClient struct {
	Status    string `json:"status"`
	BaseModel string `json:"base_model"`
}
