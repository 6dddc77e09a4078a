package services

import (
	"financas/internal/core"
	"financas/internal/storage"
)

// RecordServices groups the service of every record kind.
type RecordServices struct {
	MonthlyBills     *RecordService[core.MonthlyBill]
	Installments     *RecordService[core.Installment]
	VariableExpenses *RecordService[core.VariableExpense]
	Incomes          *RecordService[core.Income]
	FutureBills      *RecordService[core.FutureBill]
}

// NewRecordServices builds a service per kind over repo's tables, all sharing hooks.
func NewRecordServices(repo *storage.SQLiteRepository, hooks Hooks) RecordServices {
	return RecordServices{
		MonthlyBills:     NewRecordService[core.MonthlyBill](repo.MonthlyBills(), hooks),
		Installments:     NewRecordService[core.Installment](repo.Installments(), hooks),
		VariableExpenses: NewRecordService[core.VariableExpense](repo.VariableExpenses(), hooks),
		Incomes:          NewRecordService[core.Income](repo.Incomes(), hooks),
		FutureBills:      NewRecordService[core.FutureBill](repo.FutureBills(), hooks),
	}
}
