package journal

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/oysterfarm/books/internal/ledger"
)

// ValidationError describes a single invariant violation in a submitted set
// of lines. Line is the zero-based index of the offending line, or -1 for
// entry-level violations.
type ValidationError struct {
	Code string `json:"code"`
	Line int    `json:"line"`
	Msg  string `json:"msg"`
}

func (e ValidationError) Error() string {
	if e.Line < 0 {
		return e.Code + ": " + e.Msg
	}
	return fmt.Sprintf("%s: line[%d]: %s", e.Code, e.Line, e.Msg)
}

// ValidationErrors is the full set of violations found in one submission.
// It is returned as an error by the posting engine so callers can surface
// every problem at once.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func entryErr(code, msg string) ValidationError {
	return ValidationError{Code: code, Line: -1, Msg: msg}
}

func lineErr(code string, line int, msg string) ValidationError {
	return ValidationError{Code: code, Line: line, Msg: msg}
}

// Validate checks a proposed set of lines against the double-entry rules.
// An empty result means the lines may be posted. Rules after the structural
// minimum are checked independently, not short-circuited, so the caller sees
// every violation in one pass. Validate never mutates state.
func (s *service) Validate(ctx context.Context, lines []ledger.LineInput, templateKey string) ([]ValidationError, error) {
	verrs, _, err := s.validate(ctx, lines, templateKey)
	return verrs, err
}

// validate also returns the accounts referenced by the lines so the posting
// path does not fetch them twice.
func (s *service) validate(ctx context.Context, lines []ledger.LineInput, templateKey string) ([]ValidationError, map[uuid.UUID]ledger.Account, error) {
	if len(lines) < 2 {
		return []ValidationError{entryErr("too_few_lines", "an entry needs at least 2 lines")}, nil, nil
	}

	var verrs []ValidationError

	var sumDebit, sumCredit decimal.Decimal
	for _, ln := range lines {
		sumDebit = ledger.Add(sumDebit, ln.Debit)
		sumCredit = ledger.Add(sumCredit, ln.Credit)
	}
	if !ledger.WithinTolerance(sumDebit, sumCredit) {
		verrs = append(verrs, entryErr("unbalanced_entry",
			fmt.Sprintf("sum(debits) %s must equal sum(credits) %s", sumDebit, sumCredit)))
	}

	seen := make(map[uuid.UUID]int, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for i, ln := range lines {
		if first, dup := seen[ln.AccountID]; dup {
			verrs = append(verrs, lineErr("duplicate_account", i,
				fmt.Sprintf("account already used on line %d", first)))
		} else {
			seen[ln.AccountID] = i
			ids = append(ids, ln.AccountID)
		}
	}

	accounts, err := s.repo.AccountsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	for i, ln := range lines {
		acc, ok := accounts[ln.AccountID]
		switch {
		case ln.AccountID == uuid.Nil:
			verrs = append(verrs, lineErr("unknown_account", i, "account_id required"))
		case !ok:
			verrs = append(verrs, lineErr("unknown_account", i, "account not found"))
		case !acc.Active:
			verrs = append(verrs, lineErr("inactive_account", i, "account "+acc.Code+" is inactive"))
		}
		if ln.Debit.Sign() < 0 || ln.Credit.Sign() < 0 {
			verrs = append(verrs, lineErr("negative_amount", i, "amounts must not be negative"))
		}
		hasDebit := ln.Debit.Sign() > 0
		hasCredit := ln.Credit.Sign() > 0
		switch {
		case hasDebit && hasCredit:
			verrs = append(verrs, lineErr("both_sides", i, "line must not carry both a debit and a credit"))
		case !hasDebit && !hasCredit:
			verrs = append(verrs, lineErr("empty_line", i, "line must carry an amount on one side"))
		}
		if ln.Side != "" {
			if (ln.Side == ledger.SideDebit && !hasDebit && hasCredit) ||
				(ln.Side == ledger.SideCredit && !hasCredit && hasDebit) {
				verrs = append(verrs, lineErr("side_mismatch", i,
					"declared side "+string(ln.Side)+" contradicts the populated column"))
			}
		}
	}

	if templateKey != "" {
		verrs = append(verrs, s.checkTemplate(templateKey, lines)...)
	}
	return verrs, accounts, nil
}

// checkTemplate verifies every non-editable template line has a matching
// submitted line on the same account and side. Templates are compiled to
// account IDs up front, so this is a direct comparison.
func (s *service) checkTemplate(key string, lines []ledger.LineInput) []ValidationError {
	tpl, ok := s.templates[key]
	if !ok {
		return []ValidationError{entryErr("unknown_template", "no template with key "+key)}
	}
	var verrs []ValidationError
	for _, req := range tpl.Required {
		found := false
		for _, ln := range lines {
			if ln.AccountID != req.AccountID {
				continue
			}
			if (req.Side == ledger.SideDebit && ln.Debit.Sign() > 0) ||
				(req.Side == ledger.SideCredit && ln.Credit.Sign() > 0) {
				found = true
			}
			break
		}
		if !found {
			verrs = append(verrs, entryErr("template_violation",
				fmt.Sprintf("template %s requires a %s line on account %s", key, req.Side, req.AccountCode)))
		}
	}
	return verrs
}
