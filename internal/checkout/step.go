package checkout

type Step string

const (
	StepDelivery     Step = "DELIVERY"
	StepPayment      Step = "PAYMENT"
	StepAwaitingCard Step = "AWAITING_CARD"
	StepCompleted    Step = "COMPLETED"
)

var transitions = map[Step][]Step{
	StepDelivery:     {StepPayment},
	StepPayment:      {StepDelivery, StepAwaitingCard, StepCompleted},
	StepAwaitingCard: {StepCompleted, StepPayment},
}

func CanTransitionTo(from, to Step) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s Step) IsTerminal() bool {
	return s == StepCompleted
}

func (s Step) String() string {
	return string(s)
}
