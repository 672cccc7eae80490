// Package ofx converts OFX/QFX bank and credit card statements into ledger
// transactions.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"

	"github.com/Veraticus/household-ledger/internal/model"
)

// idNamespace scopes the deterministic transaction IDs derived from FITIDs.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("household-ledger/ofx"))

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Parser reads OFX/QFX files.
type Parser struct {
	now        func() time.Time
	categoryID string
}

// Option configures a Parser.
type Option func(*Parser)

// WithCategory sets the category every imported transaction is filed under.
func WithCategory(id string) Option {
	return func(p *Parser) {
		if id != "" {
			p.categoryID = id
		}
	}
}

// WithClock sets the clock used for the transactions' timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// NewParser creates a parser filing transactions under
// model.UncategorizedID unless configured otherwise.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		categoryID: model.UncategorizedID,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Statement is the result of parsing one file.
type Statement struct {
	Transactions []model.Transaction
	Accounts     []string
	Skipped      int // zero or out-of-range amounts
}

// preprocessOFX fixes common formatting issues in OFX files.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML files sometimes drop the closing bracket of a bare opening tag.
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseFile parses an OFX/QFX document. Debits become expenses and credits
// become income, rounded to whole currency units.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) (*Statement, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	stmt := &Statement{}
	now := p.now().UTC()

	for _, msg := range resp.Bank {
		if bank, ok := msg.(*ofxgo.StatementResponse); ok {
			account := string(bank.BankAcctFrom.AcctID)
			stmt.Accounts = append(stmt.Accounts, account)
			if bank.BankTranList != nil {
				p.collect(stmt, bank.BankTranList.Transactions, account, now)
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if cc, ok := msg.(*ofxgo.CCStatementResponse); ok {
			account := string(cc.CCAcctFrom.AcctID)
			stmt.Accounts = append(stmt.Accounts, account)
			if cc.BankTranList != nil {
				p.collect(stmt, cc.BankTranList.Transactions, account, now)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.Info("parsed OFX file",
		"transactions", len(stmt.Transactions),
		"accounts", len(stmt.Accounts),
		"skipped", stmt.Skipped)
	return stmt, nil
}

func (p *Parser) collect(stmt *Statement, txns []ofxgo.Transaction, account string, now time.Time) {
	for _, ofxTx := range txns {
		txn, ok := p.convertTransaction(ofxTx, account, now)
		if !ok {
			stmt.Skipped++
			continue
		}
		stmt.Transactions = append(stmt.Transactions, txn)
	}
}

// convertTransaction maps one statement line. It reports false for lines
// that cannot become a ledger transaction.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, account string, now time.Time) (model.Transaction, bool) {
	value, _ := ofxTx.TrnAmt.Float64()
	amount := int64(math.Round(math.Abs(value)))
	if amount < model.MinAmount || amount > model.MaxAmount {
		slog.Debug("skipping OFX transaction",
			"fitid", string(ofxTx.FiTID),
			"amount", value)
		return model.Transaction{}, false
	}

	txnType := model.TypeIncome
	if value < 0 {
		txnType = model.TypeExpense
	}

	return model.Transaction{
		ID:         transactionID(ofxTx, account),
		Amount:     amount,
		Date:       ofxTx.DtPosted.Time.Format(model.DateLayout),
		CategoryID: p.categoryID,
		Memo:       truncate(extractPayee(ofxTx), model.MaxMemoLength),
		Type:       txnType,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, true
}

// transactionID derives a stable ID so importing the same statement twice
// yields the same records.
func transactionID(ofxTx ofxgo.Transaction, account string) string {
	key := string(ofxTx.FiTID)
	if key == "" {
		value, _ := ofxTx.TrnAmt.Float64()
		key = fmt.Sprintf("%s|%.2f|%s", ofxTx.DtPosted.Time.Format(model.DateLayout), value, ofxTx.Name)
	}
	return uuid.NewSHA1(idNamespace, []byte(account+"/"+key)).String()
}

// extractPayee tries to get a clean payee name from OFX data.
func extractPayee(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " dates.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}
	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
