package chain

import "fmt"

// SubmissionError reports a rejected or failed contract call submission.
type SubmissionError struct {
	Method string
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit %s: %v", e.Method, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ReceiptError reports a failed, reverted or abandoned receipt wait.
type ReceiptError struct {
	TxHash string
	Err    error
}

func (e *ReceiptError) Error() string {
	return fmt.Sprintf("receipt %s: %v", e.TxHash, e.Err)
}

func (e *ReceiptError) Unwrap() error { return e.Err }
