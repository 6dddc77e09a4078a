package core

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Kind identifies a record kind. The value doubles as the API route segment.
type Kind string

const (
	KindMonthlyBill     Kind = "contas-mensais"
	KindInstallment     Kind = "parcelas"
	KindVariableExpense Kind = "gastos-variaveis"
	KindIncome          Kind = "renda"
	KindFutureBill      Kind = "contas-futuras"
)

// Kinds lists every record kind in the order they are mounted.
var Kinds = []Kind{KindMonthlyBill, KindInstallment, KindVariableExpense, KindIncome, KindFutureBill}

type InstallmentStatus string

const (
	StatusPending InstallmentStatus = "PENDENTE"
	StatusPaid    InstallmentStatus = "PAGO"
)

type Priority string

const (
	PriorityLow    Priority = "BAIXA"
	PriorityMedium Priority = "MEDIA"
	PriorityHigh   Priority = "ALTA"
)

const (
	minDescriptionLen = 3
	maxDescriptionLen = 200
	maxNotesLen       = 1000
)

type (
	// Meta is the ownership and bookkeeping data shared by every record.
	Meta struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	MonthlyBill struct {
		Meta
		Description   string `json:"descricao"`
		Amount        Money  `json:"valor"`
		DueDay        int    `json:"vencimentoDia"`
		PaymentMethod string `json:"formaPagamento"`
		Notes         string `json:"observacoes"`
	}

	Installment struct {
		Meta
		Description string            `json:"descricao"`
		TotalAmount Money             `json:"valorTotal"`
		Count       int               `json:"numeroParcelas"`
		Current     int               `json:"parcelaAtual"`
		Amount      Money             `json:"valorParcela"`
		DueDate     Date              `json:"vencimentoData"`
		Status      InstallmentStatus `json:"status"`
		Notes       string            `json:"observacoes"`
	}

	VariableExpense struct {
		Meta
		Description   string `json:"descricao"`
		Category      string `json:"categoria"`
		Amount        Money  `json:"valor"`
		Date          Date   `json:"data"`
		PaymentMethod string `json:"formaPagamento"`
		Notes         string `json:"observacoes"`
	}

	Income struct {
		Meta
		Description string `json:"descricao"`
		Amount      Money  `json:"valor"`
		ReceivedAt  Date   `json:"dataRecebimento"`
		Source      string `json:"fonte"`
		Notes       string `json:"observacoes"`
	}

	FutureBill struct {
		Meta
		Description     string   `json:"descricao"`
		EstimatedAmount Money    `json:"valorEstimado"`
		ExpectedAt      Date     `json:"previsaoPagamento"`
		Priority        Priority `json:"prioridade"`
		Notes           string   `json:"observacoes"`
	}
)

// Summary is the kind-independent view of a record used for events and exports.
type Summary struct {
	Description string
	AmountCents int64
	Date        time.Time
}

// Record is implemented by every user-owned record kind.
//
// WithMeta returns a copy carrying meta, with free-text fields trimmed and
// defaults applied; callers validate the result.
type Record[T any] interface {
	Kind() Kind
	Metadata() Meta
	WithMeta(Meta) T
	Validate() error
	Summary() Summary
}

var (
	ErrDescriptionTooShort = &ValidationError{Message: "Descrição deve ter pelo menos 3 caracteres"}
	ErrDescriptionTooLong  = &ValidationError{Message: "Descrição deve ter no máximo 200 caracteres"}
	ErrNotesTooLong        = &ValidationError{Message: "Observações devem ter no máximo 1000 caracteres"}
	ErrInvalidAmount       = &ValidationError{Message: "Valor deve ser maior que zero"}
	ErrInvalidDueDay       = &ValidationError{Message: "Dia de vencimento deve estar entre 1 e 31"}
	ErrInvalidDate         = &ValidationError{Message: "Data inválida"}
	ErrInvalidInstallment  = &ValidationError{Message: "Parcela atual deve estar entre 1 e o número de parcelas"}
	ErrInvalidCount        = &ValidationError{Message: "Número de parcelas deve ser pelo menos 1"}
	ErrInvalidStatus       = &ValidationError{Message: "Status inválido"}
	ErrInvalidPriority     = &ValidationError{Message: "Prioridade inválida"}
)

// ValidationError is returned for any input that breaks a record invariant.
// Its message is safe to show to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Metadata returns the record's bookkeeping data.
func (m Meta) Metadata() Meta { return m }

func validateDescription(s string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	if n < minDescriptionLen {
		return ErrDescriptionTooShort
	}
	if n > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

func validateNotes(s string) error {
	if utf8.RuneCountInString(s) > maxNotesLen {
		return ErrNotesTooLong
	}
	return nil
}

func (b MonthlyBill) Kind() Kind { return KindMonthlyBill }

func (b MonthlyBill) WithMeta(m Meta) MonthlyBill {
	b.Meta = m
	b.Description = strings.TrimSpace(b.Description)
	b.PaymentMethod = strings.TrimSpace(b.PaymentMethod)
	b.Notes = strings.TrimSpace(b.Notes)
	return b
}

func (b MonthlyBill) Validate() error {
	if err := validateDescription(b.Description); err != nil {
		return err
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.DueDay < 1 || b.DueDay > 31 {
		return ErrInvalidDueDay
	}
	return validateNotes(b.Notes)
}

func (b MonthlyBill) Summary() Summary {
	return Summary{Description: b.Description, AmountCents: b.Amount.Cents}
}

func (i Installment) Kind() Kind { return KindInstallment }

// WithMeta also defaults the status to PENDENTE and derives a missing total
// from the per-installment amount.
func (i Installment) WithMeta(m Meta) Installment {
	i.Meta = m
	i.Description = strings.TrimSpace(i.Description)
	i.Notes = strings.TrimSpace(i.Notes)
	if i.Status == "" {
		i.Status = StatusPending
	}
	if i.TotalAmount.Cents == 0 && i.Count > 0 {
		i.TotalAmount = Money{Cents: i.Amount.Cents * int64(i.Count)}
	}
	return i
}

func (i Installment) Validate() error {
	if err := validateDescription(i.Description); err != nil {
		return err
	}
	if err := i.TotalAmount.Validate(); err != nil {
		return err
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if i.Count < 1 {
		return ErrInvalidCount
	}
	if i.Current < 1 || i.Current > i.Count {
		return ErrInvalidInstallment
	}
	if i.DueDate.IsZero() {
		return ErrInvalidDate
	}
	switch i.Status {
	case StatusPending, StatusPaid:
	default:
		return ErrInvalidStatus
	}
	return validateNotes(i.Notes)
}

// Paid reports whether the installment has been settled.
func (i Installment) Paid() bool { return i.Status == StatusPaid }

func (i Installment) Summary() Summary {
	return Summary{Description: i.Description, AmountCents: i.Amount.Cents, Date: i.DueDate.Time}
}

func (e VariableExpense) Kind() Kind { return KindVariableExpense }

func (e VariableExpense) WithMeta(m Meta) VariableExpense {
	e.Meta = m
	e.Description = strings.TrimSpace(e.Description)
	e.Category = strings.TrimSpace(e.Category)
	e.PaymentMethod = strings.TrimSpace(e.PaymentMethod)
	e.Notes = strings.TrimSpace(e.Notes)
	return e
}

func (e VariableExpense) Validate() error {
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	return validateNotes(e.Notes)
}

func (e VariableExpense) Summary() Summary {
	return Summary{Description: e.Description, AmountCents: e.Amount.Cents, Date: e.Date.Time}
}

func (in Income) Kind() Kind { return KindIncome }

func (in Income) WithMeta(m Meta) Income {
	in.Meta = m
	in.Description = strings.TrimSpace(in.Description)
	in.Source = strings.TrimSpace(in.Source)
	in.Notes = strings.TrimSpace(in.Notes)
	return in
}

func (in Income) Validate() error {
	if err := validateDescription(in.Description); err != nil {
		return err
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if in.ReceivedAt.IsZero() {
		return ErrInvalidDate
	}
	return validateNotes(in.Notes)
}

func (in Income) Summary() Summary {
	return Summary{Description: in.Description, AmountCents: in.Amount.Cents, Date: in.ReceivedAt.Time}
}

func (f FutureBill) Kind() Kind { return KindFutureBill }

// WithMeta also defaults the priority to MEDIA.
func (f FutureBill) WithMeta(m Meta) FutureBill {
	f.Meta = m
	f.Description = strings.TrimSpace(f.Description)
	f.Notes = strings.TrimSpace(f.Notes)
	if f.Priority == "" {
		f.Priority = PriorityMedium
	}
	return f
}

func (f FutureBill) Validate() error {
	if err := validateDescription(f.Description); err != nil {
		return err
	}
	if err := f.EstimatedAmount.Validate(); err != nil {
		return err
	}
	if f.ExpectedAt.IsZero() {
		return ErrInvalidDate
	}
	switch f.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return ErrInvalidPriority
	}
	return validateNotes(f.Notes)
}

func (f FutureBill) Summary() Summary {
	return Summary{Description: f.Description, AmountCents: f.EstimatedAmount.Cents, Date: f.ExpectedAt.Time}
}
