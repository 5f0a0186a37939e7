package todos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"itask-cli/internal/api"
	"itask-cli/internal/confirm"
	"itask-cli/internal/model"
)

type call struct {
	op        string
	id        string
	text      string
	completed bool
}

type fakeAPI struct {
	mu      sync.Mutex
	todos   []model.Todo
	calls   []call
	nextID  int
	fail    map[string]error // by todo id
	listErr error
	addErr  error
}

func newFake(todos ...model.Todo) *fakeAPI {
	return &fakeAPI{todos: todos, fail: map[string]error{}}
}

func (f *fakeAPI) record(c call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func (f *fakeAPI) ListTodos(ctx context.Context) ([]model.Todo, error) {
	f.record(call{op: "list"})
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Todo(nil), f.todos...), nil
}

func (f *fakeAPI) AddTodo(ctx context.Context, text string) (model.Todo, error) {
	f.record(call{op: "add", text: text})
	if f.addErr != nil {
		return model.Todo{}, f.addErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	td := model.Todo{ID: fmt.Sprint(f.nextID), Text: text}
	f.todos = append(f.todos, td)
	return td, nil
}

func (f *fakeAPI) EditTodo(ctx context.Context, id, text string, completed bool) (model.Todo, error) {
	f.record(call{op: "edit", id: id, text: text, completed: completed})
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[id]; err != nil {
		return model.Todo{}, err
	}
	for i, td := range f.todos {
		if td.ID == id {
			f.todos[i].Text = text
			f.todos[i].Completed = completed
			return f.todos[i], nil
		}
	}
	return model.Todo{}, &api.APIError{Status: 404}
}

func (f *fakeAPI) DeleteTodo(ctx context.Context, id string) error {
	f.record(call{op: "delete", id: id})
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[id]; err != nil {
		return err
	}
	for i, td := range f.todos {
		if td.ID == id {
			f.todos = append(f.todos[:i], f.todos[i+1:]...)
			return nil
		}
	}
	return &api.APIError{Status: 404}
}

func seeded() (*fakeAPI, *Controller) {
	f := newFake(
		model.Todo{ID: "a", Text: "Write report"},
		model.Todo{ID: "b", Text: "Call mom"},
		model.Todo{ID: "c", Text: "Pay rent", Completed: true},
	)
	c := New(f)
	if err := c.Load(context.Background()); err != nil {
		panic(err)
	}
	return f, c
}

func ids(list []model.Todo) []string {
	out := make([]string, 0, len(list))
	for _, td := range list {
		out = append(out, td.ID)
	}
	return out
}

func TestValidateText(t *testing.T) {
	cases := map[string]string{
		"":         "Todo is required.",
		"   ":      "Todo is required.",
		"ok":       "Todo must be more than 3 characters.",
		"abc":      "Todo must be more than 3 characters.",
		"  abc  ":  "Todo must be more than 3 characters.",
		"1234":     "Todo must contain at least one alphabet (A-Z).",
		"éééé":     "Todo must contain at least one alphabet (A-Z).",
		"Buy milk": "",
		"1234a":    "",
	}
	for in, want := range cases {
		err := ValidateText(in)
		got := ""
		if err != nil {
			got = err.Error()
		}
		if got != want {
			t.Errorf("ValidateText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoad_OnlyOnce(t *testing.T) {
	f, c := seeded()
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.count("list"); got != 1 {
		t.Fatalf("expected a single fetch, got %d", got)
	}
	if err := c.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.count("list"); got != 2 {
		t.Fatalf("reload should refetch, got %d", got)
	}
	if got := ids(c.Pending()); strings.Join(got, ",") != "a,b" {
		t.Fatalf("unexpected pending: %v", got)
	}
	if got := ids(c.Completed()); strings.Join(got, ",") != "c" {
		t.Fatalf("unexpected completed: %v", got)
	}
}

func TestLoad_FailureLeavesStateEmpty(t *testing.T) {
	f := newFake()
	f.listErr = errors.New("boom")
	c := New(f)
	if err := c.Load(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if c.Loaded() || len(c.Items()) != 0 {
		t.Fatalf("state should be untouched")
	}
	if LoadToast(errors.New("x")) != "Failed to fetch todos" {
		t.Fatalf("unexpected toast")
	}
}

func TestCreate_RejectedLocallyWithoutRequest(t *testing.T) {
	f := newFake()
	c := New(f)
	_ = c.Load(context.Background())
	_, err := c.Submit(context.Background(), "ok")
	var inErr InputError
	if !errors.As(err, &inErr) || inErr.Error() != "Todo must be more than 3 characters." {
		t.Fatalf("expected local rejection, got %v", err)
	}
	if f.count("add") != 0 {
		t.Fatalf("no POST should be issued")
	}
}

func TestCreate_AppendsServerItemOnce(t *testing.T) {
	f := newFake()
	c := New(f)
	_ = c.Load(context.Background())
	td, err := c.Submit(context.Background(), "  Buy milk ")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if td.ID != "1" || td.Text != "Buy milk" {
		t.Fatalf("unexpected created todo: %+v", td)
	}
	// Re-applying the same server item must not duplicate it.
	c.ApplySubmitted(Submission{Text: "Buy milk"}, td)
	pending := c.Pending()
	if len(pending) != 1 || pending[0].ID != "1" || pending[0].Completed {
		t.Fatalf("unexpected list: %+v", pending)
	}
}

func TestCreate_DuplicateLeavesStateUnchanged(t *testing.T) {
	f, c := seeded()
	f.addErr = &api.APIError{Status: 400, Message: "Todo already exists"}
	before := c.Items()
	_, err := c.Submit(context.Background(), "Write report")
	if !errors.Is(err, api.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(c.Items()) != len(before) {
		t.Fatalf("state changed on failure")
	}
	if got := SubmitToast(Submission{}, err); got != "Todo already exists" {
		t.Fatalf("unexpected toast %q", got)
	}
}

func TestEdit_PreservesCompletedFlag(t *testing.T) {
	f, c := seeded()
	c.SwitchTab(model.TabCompleted)
	text, err := c.BeginEdit("c")
	if err != nil || text != "Pay rent" {
		t.Fatalf("BeginEdit: %q %v", text, err)
	}
	if c.Tab() != model.TabPending {
		t.Fatalf("edit should switch to the todo tab")
	}
	td, err := c.Submit(context.Background(), "Pay rent today")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !td.Completed || td.Text != "Pay rent today" {
		t.Fatalf("unexpected updated todo: %+v", td)
	}
	last := f.calls[len(f.calls)-1]
	if last.op != "edit" || last.id != "c" || !last.completed {
		t.Fatalf("unexpected request: %+v", last)
	}
	if _, editing := c.Editing(); editing {
		t.Fatalf("update mode should end after success")
	}
	got, _ := c.Get("c")
	if got.Text != "Pay rent today" {
		t.Fatalf("item not replaced in place: %+v", got)
	}
}

func TestEdit_FailureKeepsUpdateMode(t *testing.T) {
	f, c := seeded()
	f.fail["a"] = errors.New("network down")
	_, _ = c.BeginEdit("a")
	sub, _ := c.Prepare("Write the report")
	_, err := c.Submit(context.Background(), "Write the report")
	if err == nil {
		t.Fatalf("expected failure")
	}
	if id, ok := c.Editing(); !ok || id != "a" {
		t.Fatalf("update mode should survive a failure")
	}
	got, _ := c.Get("a")
	if got.Text != "Write report" {
		t.Fatalf("text changed on failure: %+v", got)
	}
	if SubmitToast(sub, err) != "Failed to update todo" {
		t.Fatalf("unexpected toast")
	}
}

func TestBulkComplete_ConfirmThenTwoRequests(t *testing.T) {
	f, c := seeded()
	_ = c.Toggle("a")
	_ = c.Toggle("b")
	if err := c.AskCompleteSelected(); err != nil {
		t.Fatalf("AskCompleteSelected: %v", err)
	}
	if f.count("edit") != 0 {
		t.Fatalf("nothing should be sent before confirmation")
	}
	req, open := c.Dialog.Pending()
	if !open || req.Title != "Move to completed" {
		t.Fatalf("unexpected dialog: %+v", req)
	}

	res, ran, err := c.Confirm(context.Background())
	if !ran || err != nil {
		t.Fatalf("Confirm: ran=%v err=%v", ran, err)
	}
	if f.count("edit") != 2 {
		t.Fatalf("expected two PUTs, got %d", f.count("edit"))
	}
	if got := ids(c.Completed()); len(got) != 3 {
		t.Fatalf("expected all completed, got %v", got)
	}
	if len(c.Selected(model.TabPending)) != 0 || len(c.Selected(model.TabCompleted)) != 0 {
		t.Fatalf("selection should be cleared")
	}
	if res.Toast() != "Selected todos moved to completed!" {
		t.Fatalf("unexpected toast %q", res.Toast())
	}
	if c.Dialog.Open() {
		t.Fatalf("dialog should be cleared")
	}
}

func TestBulkDelete_PartialFailureReconcilesPerItem(t *testing.T) {
	f, c := seeded()
	f.fail["b"] = &api.APIError{Status: 500}
	c.SelectAll(true)
	if err := c.AskDeleteSelected(); err != nil {
		t.Fatal(err)
	}
	res, _, err := c.Confirm(context.Background())

	var be *BatchError
	if !errors.As(err, &be) {
		t.Fatalf("expected BatchError, got %v", err)
	}
	if !be.Partial() || len(be.Failed) != 1 || be.Failed[0] != "b" {
		t.Fatalf("unexpected batch error: %+v", be)
	}
	if _, ok := c.Get("a"); ok {
		t.Fatalf("a was deleted server-side and must be gone locally")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatalf("b failed and must remain")
	}
	if !c.IsSelected("b") || c.IsSelected("a") {
		t.Fatalf("selection should keep only the failed member")
	}
	if !strings.HasPrefix(res.Toast(), "Deleted 1 of 2") {
		t.Fatalf("unexpected toast %q", res.Toast())
	}
}

func TestDelete_RemovesFromAllSelections(t *testing.T) {
	_, c := seeded()
	c.SwitchTab(model.TabCompleted)
	_ = c.Toggle("c")
	if err := c.AskDelete("c"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("c"); ok || c.IsSelected("c") {
		t.Fatalf("deleted todo must be gone from list and selections")
	}
}

func TestReopen(t *testing.T) {
	_, c := seeded()
	if err := c.AskReopen("c"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}
	td, _ := c.Get("c")
	if td.Completed {
		t.Fatalf("expected reopened todo")
	}
}

func TestAsk_RejectsInvalidTransition(t *testing.T) {
	_, c := seeded()
	if err := c.AskComplete("c"); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("completing a completed todo should fail, got %v", err)
	}
	if err := c.AskCompleteSelected(); !errors.Is(err, ErrNothingSelected) {
		t.Fatalf("expected ErrNothingSelected, got %v", err)
	}
	if err := c.AskDelete("zzz"); !errors.Is(err, ErrUnknownTodo) {
		t.Fatalf("expected ErrUnknownTodo, got %v", err)
	}
}

func TestAsk_SingleInFlight(t *testing.T) {
	f, c := seeded()
	if err := c.AskDelete("a"); err != nil {
		t.Fatal(err)
	}
	if err := c.AskDelete("b"); !errors.Is(err, confirm.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	c.Cancel()
	if _, ran, _ := c.Confirm(context.Background()); ran {
		t.Fatalf("cancelled request must not run")
	}
	if f.count("delete") != 0 {
		t.Fatalf("no request after cancel")
	}
}

func TestSwitchTab_ClearsOtherSelection(t *testing.T) {
	_, c := seeded()
	_ = c.Toggle("a")
	c.SwitchTab(model.TabCompleted)
	if len(c.Selected(model.TabPending)) != 0 {
		t.Fatalf("pending selection should be cleared")
	}
	_ = c.Toggle("c")
	c.SwitchTab(model.TabPending)
	if len(c.Selected(model.TabCompleted)) != 0 {
		t.Fatalf("completed selection should be cleared")
	}
}

func TestSelectAll(t *testing.T) {
	_, c := seeded()
	c.SelectAll(true)
	if got := c.Selected(model.TabPending); strings.Join(got, ",") != "a,b" {
		t.Fatalf("unexpected selection %v", got)
	}
	if !c.AllSelected() {
		t.Fatalf("expected all selected")
	}
	_ = c.Toggle("a")
	if c.AllSelected() {
		t.Fatalf("not all selected after toggle")
	}
	c.SelectAll(false)
	if len(c.Selected(model.TabPending)) != 0 {
		t.Fatalf("expected cleared")
	}
}

func TestReplace_PrunesStaleSelection(t *testing.T) {
	_, c := seeded()
	_ = c.Toggle("a")
	_ = c.Toggle("b")
	c.Replace([]model.Todo{{ID: "a", Text: "Write report", Completed: true}})
	if c.IsSelected("a") || c.IsSelected("b") {
		t.Fatalf("selection should follow the list")
	}
}
