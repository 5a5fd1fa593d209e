package server

import (
	"strings"
	"time"
)

const (
	RiskHigh    = "alto"
	RiskMedium  = "medio"
	RiskLow     = "baixo"
	RiskVeryLow = "muito_baixo"
)

type catRule struct {
	Min     float64
	Max     float64
	HardMax float64
}

var categoryRules = map[string]catRule{
	"alimentação": {Min: 5, Max: 300, HardMax: 1500},
	"transporte":  {Min: 10, Max: 800, HardMax: 5000},
	"taxi":        {Min: 10, Max: 300, HardMax: 2000},
	"pedágio":     {Min: 2, Max: 200, HardMax: 5000},
	"hospedagem":  {Min: 80, Max: 600, HardMax: 5000},
}

func detectAnomalies(category string, amount float64, reqDate, travelDate time.Time) []string {
	flags := []string{}
	if amount <= 0 {
		flags = append(flags, "valor não positivo")
	}
	if r, ok := categoryRules[strings.ToLower(category)]; ok {
		switch {
		case amount > r.HardMax:
			flags = append(flags, "valor acima do máximo permitido para a categoria")
		case amount > r.Max:
			flags = append(flags, "valor acima da faixa típica da categoria")
		case amount > 0 && amount < r.Min:
			flags = append(flags, "valor abaixo da faixa típica da categoria")
		}
	}
	if travelDate.Before(reqDate) {
		flags = append(flags, "data de viagem anterior à solicitação")
	}
	return flags
}

func riskBand(p float64) string {
	switch {
	case p >= 0.95:
		return RiskHigh
	case p >= 0.7:
		return RiskMedium
	case p >= 0.5:
		return RiskLow
	default:
		return RiskVeryLow
	}
}

func riskBandWithCategory(p float64, category string, amount float64) string {
	base := riskBand(p)
	r, ok := categoryRules[strings.ToLower(category)]
	if !ok {
		return base
	}
	if amount > r.Max {
		if p < 0.7 {
			return RiskMedium
		}
		return RiskHigh
	}
	if amount < r.Min && p < 0.7 {
		return RiskLow
	}
	return base
}

// riskWithAnomalies escalates to high on hard violations regardless of score.
func riskWithAnomalies(p float64, category string, amount float64, reqDate, travelDate time.Time) string {
	if amount <= 0 || travelDate.Before(reqDate) {
		return RiskHigh
	}
	if r, ok := categoryRules[strings.ToLower(category)]; ok && amount > r.HardMax {
		return RiskHigh
	}
	return riskBandWithCategory(p, category, amount)
}
