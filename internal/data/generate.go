package data

import (
	"encoding/csv"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	Categories  = []string{"Alimentação", "Transporte", "Taxi", "Pedágio", "Hospedagem"}
	departments = []string{"Financeiro", "Comercial", "Operações", "Tecnologia", "RH"}
	jobTitles   = []string{"Analista", "Coordenador", "Gerente", "Especialista", "Diretor"}
	words       = []string{"almoço", "viagem", "hotel", "uber", "táxi", "pedágio", "combustível", "reunião", "cliente", "evento"}
)

const DateLayout = "2006-01-02"

var Header = []string{"expense_id", "request_id", "requester_id", "traveller_id", "approver_id", "request_date", "travel_date", "category", "description", "amount", "currency", "job_title", "department", "approval_status", "fraud"}

// GenerateSyntheticExpenses writes n expenses to outPath. Fraud is driven by
// a handful of red flags on top of a base rate, which keeps positives rare.
func GenerateSyntheticExpenses(n int, fraudRate float64, seed int64, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(seed))
	baseDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		if err := w.Write(Record(SyntheticExpense(rng, i, baseDate, fraudRate))); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func SyntheticExpense(rng *rand.Rand, i int, baseDate time.Time, fraudRate float64) Expense {
	e := Expense{
		ExpenseID:   "E" + strconv.Itoa(1000000+i),
		RequestID:   "R" + strconv.Itoa(500000+i),
		RequesterID: "U" + strconv.Itoa(rng.Intn(5000)),
		ApproverID:  "A" + strconv.Itoa(rng.Intn(800)),
		Currency:    "BRL",
		JobTitle:    jobTitles[rng.Intn(len(jobTitles))],
		Department:  departments[rng.Intn(len(departments))],
	}
	e.TravellerID = e.RequesterID
	if rng.Float64() < 0.2 {
		e.TravellerID = "U" + strconv.Itoa(rng.Intn(5000))
	}
	if rng.Float64() < 0.03 {
		e.ApproverID = e.RequesterID
	}

	reqOffset := rng.Intn(300)
	travelOffset := reqOffset + rng.Intn(30)
	if rng.Float64() < 0.02 {
		travelOffset = reqOffset - 1 - rng.Intn(5)
	}
	e.RequestDate = baseDate.AddDate(0, 0, reqOffset)
	e.TravelDate = baseDate.AddDate(0, 0, travelOffset)

	e.Category = Categories[rng.Intn(len(Categories))]
	e.Description = strings.ToLower(e.Category + " " + words[rng.Intn(len(words))] + " " + words[rng.Intn(len(words))])

	e.Amount = rng.Float64()*450 + 10
	round := rng.Float64() < 0.25
	multiple5 := rng.Float64() < 0.25
	if round {
		e.Amount = float64(int(e.Amount))
	}
	if multiple5 {
		e.Amount = float64(5 * int(e.Amount/5))
	}

	e.ApprovalStatus = "Aprovado"
	if rng.Float64() < 0.1 {
		e.ApprovalStatus = "Reprovado"
	} else if rng.Float64() < 0.1 {
		e.ApprovalStatus = "Pendente"
	}

	score, flags := 0.0, 0
	mark := func(hit bool, weight float64) {
		if hit {
			score += weight
			flags++
		}
	}
	mark(e.RequesterID == e.ApproverID, 0.35)
	mark(round, 0.15)
	mark(multiple5, 0.15)
	mark(e.TravelDate.Before(e.RequestDate), 0.3)
	mark(e.Category == "Taxi" && e.Amount > 200, 0.2)
	if flags >= 2 || e.TravelDate.Before(e.RequestDate) || rng.Float64() < fraudRate+score/4 {
		e.Fraud = 1
	}
	return e
}

// Record renders e in Header order.
func Record(e Expense) []string {
	return []string{
		e.ExpenseID,
		e.RequestID,
		e.RequesterID,
		e.TravellerID,
		e.ApproverID,
		e.RequestDate.Format(DateLayout),
		e.TravelDate.Format(DateLayout),
		e.Category,
		e.Description,
		strconv.FormatFloat(e.Amount, 'f', 2, 64),
		e.Currency,
		e.JobTitle,
		e.Department,
		e.ApprovalStatus,
		strconv.Itoa(e.Fraud),
	}
}
