package sheets

import (
	"context"
	"time"

	"financas/internal/core"
)

// ActivityWriter appends one activity row per record event to an outbound log.
type ActivityWriter interface {
	AppendActivity(ctx context.Context, ev core.RecordEvent) (rowRef string, err error)
}

// Header is the first row of an activity sheet.
var Header = []string{"Registrado em", "Tipo", "Ação", "Descrição", "Valor", "Data", "ID", "Usuário"}

var kindLabels = map[core.Kind]string{
	core.KindMonthlyBill:     "Conta mensal",
	core.KindInstallment:     "Parcela",
	core.KindVariableExpense: "Gasto variável",
	core.KindIncome:          "Renda",
	core.KindFutureBill:      "Conta futura",
}

var actionLabels = map[core.Action]string{
	core.ActionCreated: "Criado",
	core.ActionUpdated: "Atualizado",
	core.ActionDeleted: "Removido",
}

// Row renders ev as the cells of one activity row. Times are shown in loc.
func Row(ev core.RecordEvent, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	kind, ok := kindLabels[ev.Kind]
	if !ok {
		kind = string(ev.Kind)
	}
	action, ok := actionLabels[ev.Action]
	if !ok {
		action = string(ev.Action)
	}
	date := ""
	if !ev.Date.IsZero() {
		date = ev.Date.In(loc).Format("02/01/2006")
	}
	return []string{
		ev.Timestamp.In(loc).Format("02/01/2006 15:04:05"),
		kind,
		action,
		ev.Description,
		core.FormatBRL(ev.AmountCents),
		date,
		ev.ID,
		ev.UserID,
	}
}
