package deleteapplication

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	Deleted       bool   `json:"deleted"`
	BrandDeleted  bool   `json:"brandDeleted"`
	Message       string `json:"message"`
}
