package core

// Categories are the suggested variable expense categories. Free text is
// still accepted on records.
var Categories = []string{
	"Alimentação",
	"Mercado",
	"Transporte",
	"Combustível",
	"Casa",
	"Saúde",
	"Lazer / Jogos",
	"Roupas",
	"Presentes",
	"Academia / Esporte",
	"Pet",
	"Educação",
	"Viagem",
	"Outros",
}

// PaymentMethods are the suggested payment methods.
var PaymentMethods = []string{
	"Pix",
	"Dinheiro",
	"Crédito",
	"Débito",
	"Transferência",
	"Boleto",
	"Outro",
}
