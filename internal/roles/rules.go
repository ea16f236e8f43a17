package roles

import (
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Rule names the rendering rule of a column.
type Rule string

const (
	RuleText         Rule = "text"
	RuleProduct      Rule = "product"
	RuleCustomerLink Rule = "customer_link"
	RuleScore        Rule = "score"
	RuleScorePercent Rule = "score_percent"
	RuleRiskLevel    Rule = "risk_level"
	RuleKnowledge    Rule = "knowledge"
	RuleTags         Rule = "tags"
	RuleRiskProfile  Rule = "risk_profile"
	RuleSegment      Rule = "segment"
	RuleBias         Rule = "bias"
)

// Tone is the semantic color of a rendered cell.
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneGood    Tone = "good"
	ToneWarn    Tone = "warn"
	ToneBad     Tone = "bad"
	ToneAccent  Tone = "accent"
)

// Cell is a rendered table cell, independent of markup.
type Cell struct {
	Text string   `json:"text"`
	Sub  string   `json:"sub,omitempty"`
	Tone Tone     `json:"tone,omitempty"`
	Tags []string `json:"tags,omitempty"`
	Href string   `json:"href,omitempty"`
}

// RowContext carries values that belong to the whole table rather than to a
// row, such as the selected segment and bias filters.
type RowContext struct {
	Segment string
	Bias    string
}

var (
	hundred       = decimal.NewFromInt(100)
	goodThreshold = decimal.NewFromInt(80)
	warnThreshold = decimal.NewFromInt(60)
)

// Source returns the row field the column reads from.
func (e ColumnEntry) Source() string {
	if e.Field != "" {
		return e.Field
	}
	return e.ID
}

// Render renders row according to the column rule.
func (e ColumnEntry) Render(row gjson.Result, rc RowContext) Cell {
	v := row.Get(e.Source())

	switch e.Rule {
	case RuleProduct:
		return Cell{Text: v.String(), Sub: row.Get("product_id").String()}

	case RuleCustomerLink:
		id := v.String()
		return Cell{Text: id, Href: "/dashboard/customers/" + url.PathEscape(id)}

	case RuleScore:
		return Cell{Text: v.Raw}

	case RuleScorePercent:
		return scorePercent(v)

	case RuleRiskLevel:
		return Cell{Text: v.String(), Tone: riskTone(v.String())}

	case RuleKnowledge:
		return knowledge(v)

	case RuleTags:
		var tags []string
		for _, t := range v.Array() {
			tags = append(tags, t.String())
		}
		return Cell{Tags: tags, Tone: ToneAccent}

	case RuleRiskProfile:
		if v.Float() > 0.5 {
			return Cell{Text: "Medium", Tone: ToneGood}
		}
		return Cell{Text: "Low", Tone: ToneWarn}

	case RuleSegment:
		return Cell{Text: rc.Segment, Tone: ToneAccent}

	case RuleBias:
		return Cell{Text: rc.Bias, Tone: ToneAccent}

	default:
		return Cell{Text: v.String()}
	}
}

// FormatPercent renders a 0..1 score as a percentage with one decimal.
func FormatPercent(score float64) string {
	return decimal.NewFromFloat(score).Mul(hundred).StringFixed(1) + "%"
}

func scorePercent(v gjson.Result) Cell {
	if !v.Exists() {
		return Cell{Text: "-", Tone: ToneNeutral}
	}
	pct := decimal.NewFromFloat(v.Float()).Mul(hundred)
	tone := ToneBad
	switch {
	case pct.GreaterThanOrEqual(goodThreshold):
		tone = ToneGood
	case pct.GreaterThanOrEqual(warnThreshold):
		tone = ToneWarn
	}
	return Cell{Text: pct.StringFixed(1) + "%", Tone: tone}
}

func riskTone(level string) Tone {
	switch level {
	case "High":
		return ToneBad
	case "Medium":
		return ToneWarn
	case "Low":
		return ToneGood
	default:
		return ToneNeutral
	}
}

func knowledge(v gjson.Result) Cell {
	n := v.Float()
	switch {
	case n < 35:
		return Cell{Text: v.Raw, Sub: "Low", Tone: ToneBad}
	case n < 50:
		return Cell{Text: v.Raw, Sub: "Medium", Tone: ToneWarn}
	default:
		return Cell{Text: v.Raw, Sub: "High", Tone: ToneGood}
	}
}
