package core

import "time"

const (
	// DefaultCategory labels variable expenses without a category.
	DefaultCategory = "Outros"
	// ChartFixedBills and ChartInstallments label the non-categorised slices.
	ChartFixedBills   = "Contas Fixas"
	ChartInstallments = "Parcelas"
)

// ChartEntry is one slice of the spending breakdown.
type ChartEntry struct {
	Name  string `json:"name"`
	Value Money  `json:"value"`
}

type Highlight struct {
	Description string `json:"descricao"`
	Amount      Money  `json:"valor"`
}

type UpcomingInstallment struct {
	Description string `json:"descricao"`
	Amount      Money  `json:"valor"`
	DueDate     Date   `json:"data"`
}

type Period struct {
	Start Date `json:"inicio"`
	End   Date `json:"fim"`
}

// Dashboard is the monthly aggregate shown to a user.
type Dashboard struct {
	IncomeTotal           Money                `json:"rendaTotal"`
	MonthlyBillsTotal     Money                `json:"contasMensaisTotal"`
	InstallmentsTotal     Money                `json:"parcelasTotal"`
	VariableExpensesTotal Money                `json:"gastosVariaveisTotal"`
	ExpensesTotal         Money                `json:"totalGastos"`
	Balance               Money                `json:"saldo"`
	Chart                 []ChartEntry         `json:"chartData"`
	IncomeCount           int                  `json:"qtdRendas"`
	MonthlyBillCount      int                  `json:"qtdContasMensais"`
	InstallmentCount      int                  `json:"qtdParcelas"`
	VariableExpenseCount  int                  `json:"qtdGastosVariaveis"`
	VariableExpensesMean  Money                `json:"mediaGastosVariaveis"`
	LargestExpense        *Highlight           `json:"maiorGastoVariavel"`
	NextInstallment       *UpcomingInstallment `json:"proximaParcela"`
	Period                Period               `json:"periodo"`
}

// MonthData is the input of BuildDashboard: the month's dated records plus
// every monthly bill, which counts in full each month.
type MonthData struct {
	Incomes          []Income
	MonthlyBills     []MonthlyBill
	Installments     []Installment
	VariableExpenses []VariableExpense
}

// BuildDashboard folds one month of records into a Dashboard. It does no I/O;
// now is only used to pick the next unpaid installment.
func BuildDashboard(now time.Time, period Period, data MonthData) Dashboard {
	d := Dashboard{
		Period:               period,
		IncomeCount:          len(data.Incomes),
		MonthlyBillCount:     len(data.MonthlyBills),
		InstallmentCount:     len(data.Installments),
		VariableExpenseCount: len(data.VariableExpenses),
	}

	for _, in := range data.Incomes {
		d.IncomeTotal.Cents += in.Amount.Cents
	}
	for _, b := range data.MonthlyBills {
		d.MonthlyBillsTotal.Cents += b.Amount.Cents
	}

	for _, inst := range data.Installments {
		d.InstallmentsTotal.Cents += inst.Amount.Cents
		if inst.Paid() || inst.DueDate.Before(now) {
			continue
		}
		if d.NextInstallment == nil || inst.DueDate.Before(d.NextInstallment.DueDate.Time) {
			d.NextInstallment = &UpcomingInstallment{
				Description: inst.Description,
				Amount:      inst.Amount,
				DueDate:     inst.DueDate,
			}
		}
	}

	chart := make([]ChartEntry, 0, len(data.VariableExpenses)+2)
	index := make(map[string]int)
	add := func(name string, cents int64) {
		if i, ok := index[name]; ok {
			chart[i].Value.Cents += cents
			return
		}
		index[name] = len(chart)
		chart = append(chart, ChartEntry{Name: name, Value: Money{Cents: cents}})
	}

	var largestCreated time.Time
	for _, e := range data.VariableExpenses {
		d.VariableExpensesTotal.Cents += e.Amount.Cents
		category := e.Category
		if category == "" {
			category = DefaultCategory
		}
		add(category, e.Amount.Cents)
		// ties go to the most recently created expense
		if d.LargestExpense == nil || e.Amount.Cents > d.LargestExpense.Amount.Cents ||
			(e.Amount.Cents == d.LargestExpense.Amount.Cents && !e.CreatedAt.Before(largestCreated)) {
			d.LargestExpense = &Highlight{Description: e.Description, Amount: e.Amount}
			largestCreated = e.CreatedAt
		}
	}
	add(ChartFixedBills, d.MonthlyBillsTotal.Cents)
	add(ChartInstallments, d.InstallmentsTotal.Cents)
	d.Chart = chart

	d.ExpensesTotal.Cents = d.MonthlyBillsTotal.Cents + d.InstallmentsTotal.Cents + d.VariableExpensesTotal.Cents
	d.Balance.Cents = d.IncomeTotal.Cents - d.ExpensesTotal.Cents

	if n := int64(len(data.VariableExpenses)); n > 0 {
		d.VariableExpensesMean.Cents = (d.VariableExpensesTotal.Cents + n/2) / n
	}
	return d
}
