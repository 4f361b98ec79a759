// Package intent parses free-text contractor replies into structured
// workflow decisions. Contractors reply on the shared inbound channel with
// short commands (YES, NO, QUOTE ...); anything unrecognized is reported as
// unknown so the caller can send the instruction menu rather than guessing.
package intent

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates the parsed reply.
type Kind string

const (
	KindAccept  Kind = "accept"
	KindDecline Kind = "decline"
	KindQuote   Kind = "quote"
	KindUnknown Kind = "unknown"
)

// Reply is a parsed contractor reply.
type Reply struct {
	Kind Kind
	// Reason carries trailing decline text ("NO too busy" -> "too busy").
	Reason string
	// AmountPence is the quoted amount in minor currency units.
	AmountPence int64
	// Date is the proposed attendance date, when supplied.
	Date *time.Time
}

var (
	quotePattern = regexp.MustCompile(`(?i)^quote\s+[£$€]?\s*(\d+(?:\.\d{1,2})?)(?:\s+date\s+(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?)?\s*$`)
	barePattern  = regexp.MustCompile(`^[£$€]?\s*(\d+(?:\.\d{1,2})?)$`)
)

// Parse interprets a contractor's reply. Parsing is case-insensitive and
// whitespace-tolerant; an implicit bare amount is treated as a quote.
func Parse(text string) Reply {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Reply{Kind: KindUnknown}
	}

	upper := strings.ToUpper(trimmed)

	switch {
	case upper == "YES" || upper == "ACCEPT" ||
		strings.HasPrefix(upper, "YES ") || strings.HasPrefix(upper, "ACCEPT "):
		return Reply{Kind: KindAccept}

	case upper == "NO" || upper == "DECLINE":
		return Reply{Kind: KindDecline}

	case strings.HasPrefix(upper, "NO "):
		return Reply{Kind: KindDecline, Reason: strings.TrimSpace(trimmed[3:])}

	case strings.HasPrefix(upper, "DECLINE "):
		return Reply{Kind: KindDecline, Reason: strings.TrimSpace(trimmed[8:])}
	}

	if m := quotePattern.FindStringSubmatch(trimmed); m != nil {
		return parseQuote(m)
	}

	if m := barePattern.FindStringSubmatch(trimmed); m != nil {
		return Reply{Kind: KindQuote, AmountPence: toPence(m[1])}
	}

	return Reply{Kind: KindUnknown}
}

func parseQuote(m []string) Reply {
	reply := Reply{Kind: KindQuote, AmountPence: toPence(m[1])}

	if m[2] != "" && m[3] != "" {
		day, _ := strconv.Atoi(m[2])
		month, _ := strconv.Atoi(m[3])
		year := time.Now().Year()
		if m[4] != "" {
			y, _ := strconv.Atoi(m[4])
			if y < 100 {
				y += 2000
			}
			year = y
		}

		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
			// Reject rollovers like 31/02.
			if date.Day() == day && int(date.Month()) == month {
				reply.Date = &date
			}
		}
	}

	return reply
}

// toPence converts a whole-currency amount string to integer minor units.
func toPence(amount string) int64 {
	whole, frac, hasFrac := strings.Cut(amount, ".")
	pounds, _ := strconv.ParseInt(whole, 10, 64)
	pence := pounds * 100

	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		p, _ := strconv.ParseInt(frac, 10, 64)
		pence += p
	}

	return pence
}

// InstructionMenu is the reply sent for an unknown contractor message: the
// unknown case must never silently fall through.
const InstructionMenu = "Sorry, we didn't understand that. Please reply with:\n" +
	"YES — to accept the job\n" +
	"NO <reason> — to decline\n" +
	"QUOTE <amount> — to send a quote (e.g. QUOTE £150)\n" +
	"QUOTE <amount> DATE DD/MM — to quote with a proposed date"
