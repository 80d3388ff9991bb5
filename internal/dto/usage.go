package dto

// Admission is the ledger's verdict on one generation attempt. An allowed
// request has already consumed its slot by the time the caller sees this.
type Admission struct {
	Allowed   bool
	UsedAfter int
	Limit     int
	DateKey   string
}

// Usage is the read-only counter view for UI meters.
type Usage struct {
	Used    int
	DateKey string
}
