package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budget/internal/core"
)

const maxBodyBytes = 64 << 10

var errMalformedBody = errors.New("malformed request body")

// amountField accepts 12.5 as well as "12.50" or "12,50". The raw text is
// kept so parsing and rounding happen in one place.
type amountField string

func (a *amountField) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a number or a string")
	}
	*a = amountField(n.String())
	return nil
}

type incomeRequest struct {
	Name   string      `json:"name"`
	Amount amountField `json:"amount"`
	Date   string      `json:"date"`
}

type expenseRequest struct {
	Name     string      `json:"name"`
	Amount   amountField `json:"amount"`
	Category string      `json:"category"`
	Date     string      `json:"date"`
	Source   string      `json:"source"`
}

type goalRequest struct {
	Name   string      `json:"name"`
	Target amountField `json:"target"`
}

type contributionRequest struct {
	Amount amountField `json:"amount"`
}

type thresholdRequest struct {
	Value amountField `json:"value"`
}

// decodeJSON reads one JSON object from a size-limited body
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errMalformedBody)
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errMalformedBody)
	}
	return nil
}

func (req incomeRequest) parse() (string, core.Money, core.Date, error) {
	amount, err := core.ParseAmount("amount", string(req.Amount))
	if err != nil {
		return "", core.Money{}, core.Date{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return "", core.Money{}, core.Date{}, err
	}
	return sanitizeInput(req.Name), amount, date, nil
}

func (req expenseRequest) parse() (core.ExpenseInput, error) {
	amount, err := core.ParseAmount("amount", string(req.Amount))
	if err != nil {
		return core.ExpenseInput{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.ExpenseInput{}, err
	}
	return core.ExpenseInput{
		Name:     sanitizeInput(req.Name),
		Amount:   amount,
		Category: sanitizeInput(req.Category),
		Date:     date,
		Source:   sanitizeInput(req.Source),
	}, nil
}

// parseRecent reads ?recent=N, defaulting when absent. N must be 0..100.
func parseRecent(query url.Values, def int) (int, error) {
	v := strings.TrimSpace(query.Get("recent"))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > 100 {
		return 0, fmt.Errorf("%w: recent must be between 0 and 100", errMalformedBody)
	}
	return n, nil
}
