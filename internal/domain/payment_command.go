package domain

// Command is a request to change a single payment. The set of commands is
// closed: only the types in this file implement it.
type Command interface {
	PaymentID() string
	CommandName() string
	isCommand()
}

type CreatePayment struct {
	ID     string
	Amount int64
}

type AuthorisePayment struct {
	ID string
}

type CapturePayment struct {
	ID string
}

type RefundPayment struct {
	ID     string
	Amount int64
}

type CancelPayment struct {
	ID string
}

func (c CreatePayment) PaymentID() string    { return c.ID }
func (c AuthorisePayment) PaymentID() string { return c.ID }
func (c CapturePayment) PaymentID() string   { return c.ID }
func (c RefundPayment) PaymentID() string    { return c.ID }
func (c CancelPayment) PaymentID() string    { return c.ID }

func (CreatePayment) CommandName() string    { return "create" }
func (AuthorisePayment) CommandName() string { return "authorise" }
func (CapturePayment) CommandName() string   { return "capture" }
func (RefundPayment) CommandName() string    { return "refund" }
func (CancelPayment) CommandName() string    { return "cancel" }

func (CreatePayment) isCommand()    {}
func (AuthorisePayment) isCommand() {}
func (CapturePayment) isCommand()   {}
func (RefundPayment) isCommand()    {}
func (CancelPayment) isCommand()    {}
