package model

type RFQStatus string

const (
	RFQStatusNew        RFQStatus = "new"
	RFQStatusProcessing RFQStatus = "processing"
	RFQStatusQuoted     RFQStatus = "quoted"
	RFQStatusApproved   RFQStatus = "approved"
	RFQStatusRejected   RFQStatus = "rejected"
	RFQStatusCancelled  RFQStatus = "cancelled"
)

// rfqTransitions lists the allowed successors of each non-terminal status.
var rfqTransitions = map[RFQStatus][]RFQStatus{
	RFQStatusNew:        {RFQStatusProcessing, RFQStatusQuoted, RFQStatusCancelled},
	RFQStatusProcessing: {RFQStatusQuoted, RFQStatusCancelled},
	RFQStatusQuoted:     {RFQStatusApproved, RFQStatusRejected, RFQStatusCancelled},
}

// AllRFQStatuses in workflow order.
var AllRFQStatuses = []RFQStatus{
	RFQStatusNew,
	RFQStatusProcessing,
	RFQStatusQuoted,
	RFQStatusApproved,
	RFQStatusRejected,
	RFQStatusCancelled,
}

func (s RFQStatus) Valid() bool {
	for _, st := range AllRFQStatuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s RFQStatus) IsTerminal() bool {
	return s == RFQStatusApproved || s == RFQStatusRejected || s == RFQStatusCancelled
}

// CanTransitionTo reports whether next may follow s. In lax mode any
// defined status other than s itself is accepted.
func (s RFQStatus) CanTransitionTo(next RFQStatus, strict bool) bool {
	if !next.Valid() || next == s {
		return false
	}
	if !strict {
		return true
	}
	for _, allowed := range rfqTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CustomerMayTransition reports whether a customer holding the access token
// may request this change. Customers only answer a quote.
func (s RFQStatus) CustomerMayTransition(next RFQStatus) bool {
	return s == RFQStatusQuoted && (next == RFQStatusApproved || next == RFQStatusRejected)
}

// NotifiesCustomer reports whether moving from s to next sends the customer
// an email: a quote becoming ready, or the quote being answered.
func (s RFQStatus) NotifiesCustomer(next RFQStatus) bool {
	switch next {
	case RFQStatusQuoted:
		return s == RFQStatusNew || s == RFQStatusProcessing
	case RFQStatusApproved, RFQStatusRejected:
		return true
	}
	return false
}
