package notifier

import "time"

// EncounterJob is the JSON payload queued after an encounter is
// finalized. The worker mails the user their new score; a future
// consumer could also use it to reconcile scores that failed to update
// post-commit.
type EncounterJob struct {
	EncounterID string    `json:"encounterId"`
	UserID      string    `json:"userId"`
	UserEmail   string    `json:"userEmail"`
	UserName    string    `json:"userName"`
	WallyName   string    `json:"wallyName"`
	Delta       float64   `json:"delta"`
	NewScore    float64   `json:"newScore"`
	OccurredAt  time.Time `json:"occurredAt"`
}
