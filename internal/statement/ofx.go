package statement

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/estatement/internal/model"
)

var (
	severityRe = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)`)
	openTagRe  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// OFXParser parses OFX and QFX bank and credit card statements. Negative
// amounts become withdrawals, positive ones credits.
type OFXParser struct {
	Logger *slog.Logger
}

// Format returns the parser name.
func (p *OFXParser) Format() string { return FormatOFX }

// Parse reads an OFX document and returns the transactions of every statement in it.
func (p *OFXParser) Parse(ctx context.Context, r io.Reader) ([]model.Transaction, error) {
	logger := loggerOr(p.Logger)

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading OFX file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(normalizeOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("parsing OFX file: %w", err)
	}

	var txns []model.Transaction
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		txns = append(txns, convertOFX(stmt.BankTranList.Transactions, string(stmt.BankAcctFrom.AcctID))...)
	}
	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		txns = append(txns, convertOFX(stmt.BankTranList.Transactions, string(stmt.CCAcctFrom.AcctID))...)
	}

	logger.Debug("parsed OFX statement", "transactions", len(txns))
	return txns, nil
}

// normalizeOFX fixes formatting that ofxgo rejects: leading blank lines,
// mixed-case severities and opening tags missing their closing bracket.
func normalizeOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRe.ReplaceAllStringFunc(content, strings.ToUpper)
	return openTagRe.ReplaceAllString(content, "$1>")
}

func convertOFX(list []ofxgo.Transaction, account string) []model.Transaction {
	txns := make([]model.Transaction, 0, len(list))
	for _, tx := range list {
		amount, err := decimal.NewFromString(tx.TrnAmt.FloatString(2))
		if err != nil {
			amount = decimal.Zero
		}

		txn := model.Transaction{
			ReferenceID:   string(tx.FiTID),
			AccountNumber: account,
			Timestamp:     tx.DtPosted.Time.UTC(),
			Description:   ofxDescription(tx),
		}
		switch {
		case amount.IsNegative():
			txn.Withdrawal = model.Amount(amount.Neg())
		case amount.IsPositive():
			txn.Credit = model.Amount(amount)
		}
		txns = append(txns, txn)
	}
	return txns
}

// ofxDescription prefers the payee, then the name, then the memo when the
// name is a generic label.
func ofxDescription(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}
	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && isGenericName(name) {
		return strings.TrimSpace(string(tx.Memo))
	}
	return name
}

func isGenericName(name string) bool {
	switch strings.ToUpper(name) {
	case "", "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS PURCHASE", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
