package storage

import "financas/internal/core"

var monthlyBillColumns = columns[core.MonthlyBill]{
	table:   "monthly_bills",
	names:   []string{"description", "amount_cents", "due_day", "payment_method", "notes"},
	orderBy: "due_day ASC, created_at ASC, id ASC",
	meta:    func(b *core.MonthlyBill) *core.Meta { return &b.Meta },
	values: func(b *core.MonthlyBill) []any {
		return []any{b.Description, b.Amount.Cents, b.DueDay, b.PaymentMethod, b.Notes}
	},
	dest: func(b *core.MonthlyBill) []any {
		return []any{&b.Description, &b.Amount.Cents, &b.DueDay, &b.PaymentMethod, &b.Notes}
	},
}

var installmentColumns = columns[core.Installment]{
	table: "installments",
	names: []string{
		"description", "total_amount_cents", "installment_count", "current_number",
		"amount_cents", "due_date", "status", "notes",
	},
	orderBy:    "due_date ASC, created_at ASC, id ASC",
	dateColumn: "due_date",
	meta:       func(i *core.Installment) *core.Meta { return &i.Meta },
	values: func(i *core.Installment) []any {
		return []any{
			i.Description, i.TotalAmount.Cents, i.Count, i.Current,
			i.Amount.Cents, formatTime(i.DueDate.Time), string(i.Status), i.Notes,
		}
	},
	dest: func(i *core.Installment) []any {
		return []any{
			&i.Description, &i.TotalAmount.Cents, &i.Count, &i.Current,
			&i.Amount.Cents, dateDest(&i.DueDate), (*string)(&i.Status), &i.Notes,
		}
	},
}

var variableExpenseColumns = columns[core.VariableExpense]{
	table:      "variable_expenses",
	names:      []string{"description", "category", "amount_cents", "spent_at", "payment_method", "notes"},
	orderBy:    "spent_at DESC, created_at DESC, id ASC",
	dateColumn: "spent_at",
	meta:       func(e *core.VariableExpense) *core.Meta { return &e.Meta },
	values: func(e *core.VariableExpense) []any {
		return []any{e.Description, e.Category, e.Amount.Cents, formatTime(e.Date.Time), e.PaymentMethod, e.Notes}
	},
	dest: func(e *core.VariableExpense) []any {
		return []any{&e.Description, &e.Category, &e.Amount.Cents, dateDest(&e.Date), &e.PaymentMethod, &e.Notes}
	},
}

var incomeColumns = columns[core.Income]{
	table:      "incomes",
	names:      []string{"description", "amount_cents", "received_at", "source", "notes"},
	orderBy:    "received_at DESC, created_at DESC, id ASC",
	dateColumn: "received_at",
	meta:       func(in *core.Income) *core.Meta { return &in.Meta },
	values: func(in *core.Income) []any {
		return []any{in.Description, in.Amount.Cents, formatTime(in.ReceivedAt.Time), in.Source, in.Notes}
	},
	dest: func(in *core.Income) []any {
		return []any{&in.Description, &in.Amount.Cents, dateDest(&in.ReceivedAt), &in.Source, &in.Notes}
	},
}

var futureBillColumns = columns[core.FutureBill]{
	table:      "future_bills",
	names:      []string{"description", "estimated_amount_cents", "expected_at", "priority", "notes"},
	orderBy:    "expected_at ASC, created_at ASC, id ASC",
	dateColumn: "expected_at",
	meta:       func(f *core.FutureBill) *core.Meta { return &f.Meta },
	values: func(f *core.FutureBill) []any {
		return []any{f.Description, f.EstimatedAmount.Cents, formatTime(f.ExpectedAt.Time), string(f.Priority), f.Notes}
	},
	dest: func(f *core.FutureBill) []any {
		return []any{&f.Description, &f.EstimatedAmount.Cents, dateDest(&f.ExpectedAt), (*string)(&f.Priority), &f.Notes}
	},
}

func dateDest(d *core.Date) *timeText {
	return (*timeText)(&d.Time)
}
