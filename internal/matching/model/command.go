package model

// CommandTag identifies the variant carried by a Command. Never branch on
// runtime type by inspecting fields not selected by this tag.
type CommandTag uint8

const (
	CmdAdd CommandTag = iota
	CmdCancel
	CmdModify
)

func (t CommandTag) String() string {
	switch t {
	case CmdAdd:
		return "ADD"
	case CmdCancel:
		return "CANCEL"
	case CmdModify:
		return "MODIFY"
	default:
		return "UNKNOWN"
	}
}

// Command is the tagged union entering the matcher's ingress ring. Only
// the fields relevant to Tag are populated; the matcher never inspects
// fields outside of what Tag selects.
type Command struct {
	Tag CommandTag

	// Add
	Order *Order

	// Cancel / Modify target
	ID ID

	// Modify payload
	NewSide  Side
	NewPrice Price
	NewQty   uint64

	// IngressNs is the acceptance timestamp in Unix nanoseconds, set by
	// the producer-facing Add/Cancel/Modify call before enqueue. It is a
	// wall-clock reading (time.Now().UnixNano()), not a monotonic one.
	IngressNs int64
}
