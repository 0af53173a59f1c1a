package orchestrator

// Outcome is the tagged result of one order task.
type Outcome int

// Task outcomes.
const (
	// OutcomeIgnored means the order was not in a state this task could act on.
	OutcomeIgnored Outcome = iota
	OutcomeAssigned
	OutcomeCancelledRestaurant
	OutcomeCancelledNoDriver
	OutcomeCancelledClient
	// OutcomeInvalid means validation failed; the order keeps its status.
	OutcomeInvalid
	// OutcomeInterrupted means shutdown stopped the task; recovery re-drives the order.
	OutcomeInterrupted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAssigned:
		return "assigned"
	case OutcomeCancelledRestaurant:
		return "cancelled_restaurant"
	case OutcomeCancelledNoDriver:
		return "cancelled_no_driver"
	case OutcomeCancelledClient:
		return "cancelled_client"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeInterrupted:
		return "interrupted"
	default:
		return "ignored"
	}
}
