package domain

type StatusKind string

const (
	StatusUnknown     StatusKind = "unknown"
	StatusMaintenance StatusKind = "maintenance"
	StatusWaiting     StatusKind = "waiting"
	StatusActive      StatusKind = "active"
)

type Status struct {
	Kind    StatusKind
	Message string
}

func ActiveStatus() Status {
	return Status{Kind: StatusActive}
}

func WaitingStatus(message string) Status {
	return Status{Kind: StatusWaiting, Message: message}
}

func (self Status) String() string {
	if self.Message == "" {
		return string(self.Kind)
	}
	return string(self.Kind) + ": " + self.Message
}
