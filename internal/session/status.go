package session

// Status is the externally visible session state.
type Status string

const (
	SignedOut  Status = "signed_out"
	SignedIn   Status = "signed_in"
	Refreshing Status = "refreshing"
)
