package updateapplicationstatus

type Input struct {
	ApplicationID string  `json:"applicationId"`
	Status        string  `json:"status"`
	Notes         *string `json:"notes,omitempty"`
}

// Output is written back to the process. Credentials are left out: process
// variables are persisted by the broker.
type Output struct {
	ApplicationID     string `json:"applicationId"`
	Status            string `json:"status"`
	Message           string `json:"message"`
	BrandID           string `json:"brandId,omitempty"`
	UserID            string `json:"userId,omitempty"`
	BrandCreated      bool   `json:"brandCreated"`
	UserCreated       bool   `json:"userCreated"`
	CredentialsIssued bool   `json:"credentialsIssued"`
	NotificationSent  bool   `json:"notificationSent"`
	Warning           string `json:"warning,omitempty"`
	Note              string `json:"note,omitempty"`
}
