package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/session"
)

const publishTimeout = 3 * time.Second

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if resp := ParseFormOrFail(w, r); resp != nil {
		resp.Write(w)
		return
	}
	sess, err := s.resumeSession(w, r)
	if err != nil {
		s.sessionError(w, r, err)
		return
	}

	entry, err := ParseIncomeForm(r.PostForm, s.today())
	if err == nil {
		err = sess.Do(func(l *ledger.Ledger) error { return l.AppendIncome(ctx, entry) })
	}
	if err != nil {
		s.appendFailed(w, r, sess.ID, events.KindIncome, err)
		return
	}

	s.appMetrics.incomeLogged.Add(1)
	s.structured.LogEntryLogged(ctx, sess.ID, string(events.KindIncome), entry.Date.String(), entry.Source, entry.Amount.Cents)
	s.publish(ctx, events.IncomeLogged(sess.ID, entry, s.now()))

	msg := fmt.Sprintf("Income of %s from %s logged.", formatMoney(s.currency, entry.Amount), entry.Source)
	s.appended(w, r, events.KindIncome, "income-form", msg)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if resp := ParseFormOrFail(w, r); resp != nil {
		resp.Write(w)
		return
	}
	sess, err := s.resumeSession(w, r)
	if err != nil {
		s.sessionError(w, r, err)
		return
	}

	entry, err := ParseExpenseForm(r.PostForm, s.today())
	if err == nil {
		err = sess.Do(func(l *ledger.Ledger) error { return l.AppendExpense(ctx, entry) })
	}
	if err != nil {
		s.appendFailed(w, r, sess.ID, events.KindExpense, err)
		return
	}

	s.appMetrics.expensesLogged.Add(1)
	s.structured.LogEntryLogged(ctx, sess.ID, string(events.KindExpense), entry.Date.String(), entry.Category.String(), entry.Amount.Cents)
	s.publish(ctx, events.ExpenseLogged(sess.ID, entry, s.now()))

	msg := fmt.Sprintf("Expense of %s for %s logged.", formatMoney(s.currency, entry.Amount), entry.Category)
	s.appended(w, r, events.KindExpense, "expense-form", msg)
}

// appended answers a successful append: htmx gets triggers and a success
// fragment, plain form posts are redirected back to the dashboard.
func (s *Server) appended(w http.ResponseWriter, r *http.Request, kind events.Kind, formID, msg string) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	SuccessResponse(msg).
		TriggerLedgerChanged(string(kind)).
		TriggerFormReset(formID).
		TriggerSuccessNotification(msg).
		Write(w)
}

func (s *Server) appendFailed(w http.ResponseWriter, r *http.Request, sessionID string, kind events.Kind, err error) {
	switch {
	case isValidationError(err):
		s.appMetrics.rejected.Add(1)
		s.structured.LogRejected(r.Context(), sessionID, string(kind), err)
		UnprocessableEntityError(validationMessage(err)).Write(w)
	case errors.Is(err, session.ErrEnded):
		s.sessionError(w, r, err)
	default:
		s.structured.LogError(r.Context(), "Ledger append failed", err, log.ComponentLedger, log.OpAppend,
			log.NewFields().WithSessionID(sessionID).WithErrorType(log.ErrorTypeDatabase))
		InternalServerError("Could not save the entry. Please try again.").Write(w)
	}
}

// publish delivers e best effort. Failures are logged and counted only.
func (s *Server) publish(ctx context.Context, e events.EntryLogged) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.appMetrics.publishFailures.Add(1)
		s.structured.LogError(ctx, "Event publish failed", err, log.ComponentEvents, log.OpPublish,
			log.NewFields().WithSessionID(e.SessionID).WithErrorType(log.ErrorTypeNetwork))
	}
}

type incomeRow struct {
	Date   string
	Source string
	Amount core.Money
}

type expenseRow struct {
	Date     string
	Category string
	Amount   core.Money
}

type overviewData struct {
	Income   []incomeRow
	Expenses []expenseRow
	Summary  report.Summary
	Bars     []report.Bar
	Slices   []sliceView
}

type sliceView struct {
	report.Slice
	Color string
}

// categoryColors follows core.Categories order.
var categoryColors = []string{"#f28e2b", "#4e79a7", "#e15759", "#76b7b2", "#bab0ac"}

func categoryColor(c core.Category) string {
	if i := c.Index(); i < len(categoryColors) {
		return categoryColors[i]
	}
	return categoryColors[len(categoryColors)-1]
}

// snapshot reads both ledger sequences under the session lock.
func snapshot(ctx context.Context, sess *session.Session) (income []core.IncomeEntry, expenses []core.ExpenseEntry, err error) {
	err = sess.Do(func(l *ledger.Ledger) error {
		if income, err = l.AllIncome(ctx); err != nil {
			return err
		}
		expenses, err = l.AllExpenses(ctx)
		return err
	})
	return income, expenses, err
}

func buildOverview(income []core.IncomeEntry, expenses []core.ExpenseEntry) overviewData {
	data := overviewData{Summary: report.BuildSummary(income, expenses)}
	for _, e := range income {
		data.Income = append(data.Income, incomeRow{Date: e.Date.String(), Source: e.Source, Amount: e.Amount})
	}
	for _, e := range expenses {
		data.Expenses = append(data.Expenses, expenseRow{Date: e.Date.String(), Category: e.Category.String(), Amount: e.Amount})
	}
	if len(expenses) > 0 {
		byCat := report.ExpensesByCategory(expenses)
		data.Bars = report.BarChart(byCat)
		for _, sl := range report.PieChart(byCat) {
			data.Slices = append(data.Slices, sliceView{Slice: sl, Color: categoryColor(sl.Category)})
		}
	}
	return data
}

// handleOverview renders the tables, summary and charts partial.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}
	sess, err := s.resumeSession(w, r)
	if err != nil {
		s.sessionError(w, r, err)
		return
	}

	income, expenses, err := snapshot(r.Context(), sess)
	if err != nil {
		if errors.Is(err, session.ErrEnded) {
			s.sessionError(w, r, err)
			return
		}
		s.structured.LogError(r.Context(), "Ledger read failed", err, log.ComponentLedger, log.OpList,
			log.NewFields().WithSessionID(sess.ID))
		InternalServerError("Could not load your ledger.").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "overview", buildOverview(income, expenses)); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution error",
			log.FieldError, err, "template", "overview")
		InternalServerError("Could not render the overview.").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExportIncome(w http.ResponseWriter, r *http.Request) {
	s.exportCSV(w, r, report.IncomeFileName, func(buf *bytes.Buffer, income []core.IncomeEntry, _ []core.ExpenseEntry) error {
		return report.WriteIncomeCSV(buf, income)
	})
}

func (s *Server) handleExportExpenses(w http.ResponseWriter, r *http.Request) {
	s.exportCSV(w, r, report.ExpenseFileName, func(buf *bytes.Buffer, _ []core.IncomeEntry, expenses []core.ExpenseEntry) error {
		return report.WriteExpenseCSV(buf, expenses)
	})
}

// exportCSV renders the file into memory first so a failure still yields
// a clean 500 instead of a truncated download.
func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request, filename string, write func(*bytes.Buffer, []core.IncomeEntry, []core.ExpenseEntry) error) {
	sess, err := s.resumeSession(w, r)
	if err != nil {
		s.sessionError(w, r, err)
		return
	}

	income, expenses, err := snapshot(r.Context(), sess)
	var buf bytes.Buffer
	if err == nil {
		err = write(&buf, income, expenses)
	}
	if err != nil {
		if errors.Is(err, session.ErrEnded) {
			s.sessionError(w, r, err)
			return
		}
		s.structured.LogError(r.Context(), "CSV export failed", err, log.ComponentExport, log.OpExport,
			log.NewFields().WithSessionID(sess.ID))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// handleEndSession tears down the caller's ledger. The next request starts
// a fresh, empty session.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		s.sessions.End(c.Value)
		log.FromContext(r.Context()).WithComponent(log.ComponentSession).InfoContext(r.Context(), "Session ended by user",
			log.FieldSessionID, c.Value)
	}
	clearSessionCookie(w, r)

	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	SuccessResponse("Session cleared.").
		TriggerSessionEnded().
		TriggerLedgerChanged("reset").
		TriggerNotification(NotificationInfo, "Session cleared. All entries were discarded.", 3000).
		Write(w)
}
