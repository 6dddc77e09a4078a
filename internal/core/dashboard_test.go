package core

import (
	"testing"
	"time"
)

func cents(c int64) Money { return Money{Cents: c} }

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	start, end := MonthBounds(now, time.UTC)
	period := Period{Start: Date{Time: start}, End: Date{Time: end}}

	data := MonthData{
		Incomes: []Income{
			{Description: "Salário", Amount: cents(500000)},
			{Description: "Freela", Amount: cents(75000)},
		},
		MonthlyBills: []MonthlyBill{
			{Description: "Aluguel", Amount: cents(150000), DueDay: 5},
			{Description: "Internet", Amount: cents(10000), DueDay: 10},
		},
		Installments: []Installment{
			{Description: "TV", Amount: cents(20000), DueDate: Date{Time: now.AddDate(0, 0, -5)}, Status: StatusPending},
			{Description: "Sofá", Amount: cents(30000), DueDate: Date{Time: now.AddDate(0, 0, 10)}, Status: StatusPending},
			{Description: "Celular", Amount: cents(15000), DueDate: Date{Time: now.AddDate(0, 0, 3)}, Status: StatusPaid},
			{Description: "Geladeira", Amount: cents(25000), DueDate: Date{Time: now.AddDate(0, 0, 5)}, Status: StatusPending},
		},
		VariableExpenses: []VariableExpense{
			{Meta: Meta{CreatedAt: now.Add(-time.Hour)}, Description: "Feira", Category: "Mercado", Amount: cents(12000)},
			{Description: "Uber", Category: "Transporte", Amount: cents(3000)},
			{Meta: Meta{CreatedAt: now.Add(-2 * time.Hour)}, Description: "Presente", Category: "", Amount: cents(12000)},
			{Description: "Padaria", Category: "Mercado", Amount: cents(1001)},
		},
	}

	d := BuildDashboard(now, period, data)

	if d.IncomeTotal.Cents != 575000 {
		t.Errorf("rendaTotal = %d", d.IncomeTotal.Cents)
	}
	if d.MonthlyBillsTotal.Cents != 160000 {
		t.Errorf("contasMensaisTotal = %d", d.MonthlyBillsTotal.Cents)
	}
	if d.InstallmentsTotal.Cents != 90000 {
		t.Errorf("parcelasTotal = %d", d.InstallmentsTotal.Cents)
	}
	if d.VariableExpensesTotal.Cents != 28001 {
		t.Errorf("gastosVariaveisTotal = %d", d.VariableExpensesTotal.Cents)
	}
	if d.ExpensesTotal.Cents != 160000+90000+28001 {
		t.Errorf("totalGastos = %d", d.ExpensesTotal.Cents)
	}
	if d.Balance.Cents != d.IncomeTotal.Cents-d.ExpensesTotal.Cents {
		t.Errorf("saldo = %d", d.Balance.Cents)
	}
	if d.IncomeCount != 2 || d.MonthlyBillCount != 2 || d.InstallmentCount != 4 || d.VariableExpenseCount != 4 {
		t.Errorf("counts = %d %d %d %d", d.IncomeCount, d.MonthlyBillCount, d.InstallmentCount, d.VariableExpenseCount)
	}
	// 28001 / 4 = 7000.25
	if d.VariableExpensesMean.Cents != 7000 {
		t.Errorf("media = %d", d.VariableExpensesMean.Cents)
	}

	wantChart := []ChartEntry{
		{Name: "Mercado", Value: cents(13001)},
		{Name: "Transporte", Value: cents(3000)},
		{Name: DefaultCategory, Value: cents(12000)},
		{Name: ChartFixedBills, Value: cents(160000)},
		{Name: ChartInstallments, Value: cents(90000)},
	}
	if len(d.Chart) != len(wantChart) {
		t.Fatalf("chart = %+v", d.Chart)
	}
	var sum int64
	for i, e := range d.Chart {
		if e != wantChart[i] {
			t.Errorf("chart[%d] = %+v, want %+v", i, e, wantChart[i])
		}
		sum += e.Value.Cents
	}
	if sum != d.ExpensesTotal.Cents {
		t.Errorf("chart sums to %d, totalGastos %d", sum, d.ExpensesTotal.Cents)
	}

	if d.LargestExpense == nil || d.LargestExpense.Description != "Feira" {
		t.Errorf("maiorGastoVariavel = %+v, want the most recently created of the tied maxima", d.LargestExpense)
	}
	if d.NextInstallment == nil || d.NextInstallment.Description != "Geladeira" {
		t.Errorf("proximaParcela = %+v, want Geladeira", d.NextInstallment)
	}
	if !d.Period.Start.Equal(start) || !d.Period.End.Equal(end) {
		t.Errorf("periodo = %+v", d.Period)
	}
}

func TestBuildDashboardEmpty(t *testing.T) {
	d := BuildDashboard(time.Now(), Period{}, MonthData{})
	if d.LargestExpense != nil || d.NextInstallment != nil {
		t.Fatalf("expected no highlights, got %+v %+v", d.LargestExpense, d.NextInstallment)
	}
	if d.VariableExpensesMean.Cents != 0 || d.Balance.Cents != 0 {
		t.Fatalf("expected zero totals, got %+v", d)
	}
	if len(d.Chart) != 2 || d.Chart[0].Name != ChartFixedBills || d.Chart[1].Name != ChartInstallments {
		t.Fatalf("chart = %+v", d.Chart)
	}
}

func TestBuildDashboardMergesCategoryCollisions(t *testing.T) {
	data := MonthData{
		MonthlyBills:     []MonthlyBill{{Amount: cents(1000)}},
		VariableExpenses: []VariableExpense{{Category: ChartFixedBills, Amount: cents(500)}},
	}
	d := BuildDashboard(time.Now(), Period{}, data)
	if len(d.Chart) != 2 {
		t.Fatalf("chart = %+v", d.Chart)
	}
	if d.Chart[0].Name != ChartFixedBills || d.Chart[0].Value.Cents != 1500 {
		t.Fatalf("chart[0] = %+v", d.Chart[0])
	}
}

func TestBuildDashboardNegativeBalance(t *testing.T) {
	data := MonthData{
		Incomes:      []Income{{Amount: cents(1000)}},
		MonthlyBills: []MonthlyBill{{Amount: cents(2500)}},
	}
	d := BuildDashboard(time.Now(), Period{}, data)
	if d.Balance.Cents != -1500 {
		t.Fatalf("saldo = %d, want -1500", d.Balance.Cents)
	}
}
