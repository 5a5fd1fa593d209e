package features

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"balancedbag/internal/data"
)

func Vectorize(e data.Expense) ([]float64, []string) {
	names := []string{"Amount", "IntervaloSolicitante", "DiaSemana", "Mes",
		"MesmoAprovador", "SolicitanteViajante", "ValorInteiro", "ValorMultiplo5"}
	vec := []float64{
		e.Amount,
		float64(int(e.TravelDate.Sub(e.RequestDate).Hours() / 24)),
		float64(int(e.RequestDate.Weekday())),
		float64(int(e.RequestDate.Month())),
		boolToFloat(e.ApproverID == e.RequesterID),
		boolToFloat(e.RequesterID == e.TravellerID),
		boolToFloat(e.Amount == float64(int(e.Amount))),
		boolToFloat(int(e.Amount)%5 == 0),
	}

	catLower := strings.ToLower(e.Category)
	for _, c := range data.Categories {
		names = append(names, "Cat_"+c)
		vec = append(vec, boolToFloat(strings.ToLower(c) == catLower))
	}
	return vec, names
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

func BuildExpense(
	expenseID, requestID, requesterID, travellerID, approverID string,
	requestDate, travelDate time.Time,
	category, description string,
	amount float64,
	currency, jobTitle, department, approvalStatus string,
) data.Expense {
	return data.Expense{
		ExpenseID:      expenseID,
		RequestID:      requestID,
		RequesterID:    requesterID,
		TravellerID:    travellerID,
		ApproverID:     approverID,
		RequestDate:    requestDate,
		TravelDate:     travelDate,
		Category:       category,
		Description:    description,
		Amount:         amount,
		Currency:       currency,
		JobTitle:       jobTitle,
		Department:     department,
		ApprovalStatus: approvalStatus,
	}
}

// ParseRecord reads one CSV row laid out as data.Header.
func ParseRecord(row []string) (data.Expense, error) {
	if len(row) < len(data.Header) {
		return data.Expense{}, fmt.Errorf("expected %d columns, got %d", len(data.Header), len(row))
	}
	reqDate, err := time.Parse(data.DateLayout, row[5])
	if err != nil {
		return data.Expense{}, fmt.Errorf("request_date: %w", err)
	}
	travelDate, err := time.Parse(data.DateLayout, row[6])
	if err != nil {
		return data.Expense{}, fmt.Errorf("travel_date: %w", err)
	}
	amount, err := strconv.ParseFloat(row[9], 64)
	if err != nil {
		return data.Expense{}, fmt.Errorf("amount: %w", err)
	}
	fraud, err := strconv.Atoi(row[14])
	if err != nil {
		return data.Expense{}, fmt.Errorf("fraud: %w", err)
	}
	e := BuildExpense(row[0], row[1], row[2], row[3], row[4], reqDate, travelDate,
		row[7], row[8], amount, row[10], row[11], row[12], row[13])
	e.Fraud = fraud
	return e, nil
}

// LoadCSV reads an expenses CSV into a feature matrix and fraud labels.
func LoadCSV(path string) ([][]float64, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("%s: no data rows", path)
	}
	X := make([][]float64, 0, len(rows)-1)
	y := make([]int, 0, len(rows)-1)
	for i, row := range rows[1:] {
		e, err := ParseRecord(row)
		if err != nil {
			return nil, nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		v, _ := Vectorize(e)
		X = append(X, v)
		y = append(y, e.Fraud)
	}
	return X, y, nil
}
