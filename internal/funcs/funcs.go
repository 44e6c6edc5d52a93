package funcs

import (
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
)

var TemplateFuncs = template.FuncMap{
	"now":        time.Now,
	"formatTime": formatTime,
	"formatMoney": func(amount decimal.Decimal) string {
		return amount.StringFixed(2)
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
}

func formatTime(format string, t time.Time) string {
	return t.Format(format)
}
